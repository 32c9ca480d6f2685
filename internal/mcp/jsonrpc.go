package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const logModule = "mcp"

// Dashboard is the read and refresh surface of the data source controller.
type Dashboard interface {
	Snapshot() *source.Snapshot
	Refresh(ctx context.Context) (*source.Snapshot, error)
	State() source.State
	LastError() error
}

// Chat is the update channel surface exposed as tools.
type Chat interface {
	Send(ctx context.Context, text string) (chat.Message, error)
	Log() []chat.Message
}

// Options configures a Server.
type Options struct {
	// PageSize is the default page size of get_records.
	PageSize int

	// Version is reported in serverInfo.
	Version string

	Logger logger.Logger
}

// Server is an MCP stdio server. It reads JSON-RPC requests from r and
// writes JSON-RPC responses to w. Calls are dispatched to registered tools.
type Server struct {
	tools    []toolDef
	dash     Dashboard
	chat     Chat
	pageSize int
	version  string
	log      logger.Logger
}

// toolDef describes a registered MCP tool.
type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

// toolHandler is the function signature for MCP tool handlers.
type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// jsonrpcRequest is a JSON-RPC 2.0 request message.
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response message.
type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

// jsonrpcError represents a JSON-RPC 2.0 error object.
type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolsCallParams is the params structure for tools/call requests.
type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult wraps a tool result as an MCP content response.
type toolsCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError"`
}

// mcpContent is a single content item in an MCP tool response.
type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolListEntry is the shape of a single tool in a tools/list response.
type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server over the dashboard controller and, when ch
// is non-nil, the chat channel.
func NewServer(dash Dashboard, ch Chat, opts Options) *Server {
	s := &Server{
		dash:     dash,
		chat:     ch,
		pageSize: opts.PageSize,
		version:  opts.Version,
		log:      opts.Logger,
	}
	if s.pageSize <= 0 {
		s.pageSize = 10
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	addTools(s)
	return s
}

// registerTool appends a toolDef to s.tools.
func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

// maxLineSize bounds a single request line.
const maxLineSize = 1 << 20

// Run serves requests read line by line from r, writing one response line
// per request to w. It returns nil when r reaches EOF or ctx is done, and
// the read or write error otherwise.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	lines, scanErr := scanLines(ctx, r)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := s.handleLine(ctx, line, bw); err != nil {
				return err
			}
		}
	}
}

// scanLines feeds the lines of r to the returned channel until EOF, a read
// error or ctx cancellation. The error channel receives exactly one value
// before the line channel closes.
func scanLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// protocolVersion is the MCP revision the server speaks.
const protocolVersion = "2024-11-05"

// handleLine decodes one request line and writes its response. Notifications
// (requests without an id) get no response.
func (s *Server) handleLine(ctx context.Context, line string, bw *bufio.Writer) error {
	var req jsonrpcRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return s.writeError(bw, nil, codeParseError, "Parse error")
	}
	if req.ID == nil {
		return nil
	}

	resp := jsonrpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "clientdash", "version": s.version},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = map[string]any{"tools": s.listTools()}
	case "tools/call":
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &jsonrpcError{Code: codeInvalidParams, Message: "Invalid params"}
			break
		}
		resp.Result = s.callTool(ctx, params)
	default:
		resp.Error = &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}

	return s.writeResponse(bw, resp)
}

func (s *Server) listTools() []toolListEntry {
	entries := make([]toolListEntry, 0, len(s.tools))
	for _, t := range s.tools {
		entries = append(entries, toolListEntry{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return entries
}

// callTool runs the named tool. Tool failures are reported in the result
// with isError set, not as JSON-RPC errors, so the client can show them.
func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	tool, ok := s.lookupTool(params.Name)
	if !ok {
		return textResult(fmt.Sprintf("unknown tool: %s", params.Name), true)
	}

	args := params.Arguments
	if args == nil {
		args = json.RawMessage(`{}`)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		s.log.Warn(logModule, "tool call failed", map[string]any{"tool": tool.Name, "error": err.Error()})
		return textResult(err.Error(), true)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return textResult(err.Error(), true)
	}
	return textResult(string(data), false)
}

func (s *Server) lookupTool(name string) (toolDef, bool) {
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return toolDef{}, false
}

func textResult(text string, isError bool) toolsCallResult {
	return toolsCallResult{
		Content: []mcpContent{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// writeError writes a JSON-RPC error response with no result.
func (s *Server) writeError(bw *bufio.Writer, id *json.RawMessage, code int, message string) error {
	return s.writeResponse(bw, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: message},
	})
}

// writeResponse writes resp as one JSON line and flushes.
func (s *Server) writeResponse(bw *bufio.Writer, resp jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
