package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/records"
	"github.com/blackwell-systems/clientdash/internal/source"
)

// MetricsResult holds the dashboard cards for the current snapshot.
type MetricsResult struct {
	Version  uint64           `json:"version"`
	State    source.State     `json:"state"`
	LoadedAt time.Time        `json:"loaded_at"`
	Metrics  analyzer.Metrics `json:"metrics"`
	Error    string           `json:"error,omitempty"`
}

// RecordsResult holds one page of client records.
type RecordsResult struct {
	Version uint64                 `json:"version"`
	Page    int                    `json:"page"`
	PerPage int                    `json:"per_page"`
	Pages   int                    `json:"pages"`
	Total   int                    `json:"total"`
	Records []records.ClientRecord `json:"records"`
}

// RefreshResult reports the outcome of refresh_data.
type RefreshResult struct {
	Version     uint64              `json:"version"`
	State       source.State        `json:"state"`
	Records     int                 `json:"records"`
	Diagnostics records.Diagnostics `json:"diagnostics"`
}

// ChatResult is the assistant reply to send_chat_message.
type ChatResult struct {
	Reply   chat.Message `json:"reply"`
	Version uint64       `json:"version"`
}

var (
	noArgsSchema  = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	recordsSchema = json.RawMessage(`{"type":"object","properties":{"page":{"type":"integer","description":"1-based page number (default 1)"},"per_page":{"type":"integer","description":"Records per page"},"status":{"type":"string","description":"Only records in this category: Active, Pending, Inactive or Other"}},"additionalProperties":false}`)
	chatSchema    = json.RawMessage(`{"type":"object","properties":{"message":{"type":"string","description":"Message for the dashboard assistant"}},"required":["message"],"additionalProperties":false}`)
)

// addTools registers the dashboard tool handlers on s. Chat tools are only
// registered when a chat channel is configured.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_metrics",
		Description: "Dashboard totals: clients, headshots, revenue, active clients and average price.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetMetrics,
	})
	s.registerTool(toolDef{
		Name:        "get_status_breakdown",
		Description: "Client count and percentage per status category (Active, Pending, Inactive, Other).",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetStatusBreakdown,
	})
	s.registerTool(toolDef{
		Name:        "get_revenue_series",
		Description: "Monthly revenue with measured flags and the synthetic target line.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetRevenueSeries,
	})
	s.registerTool(toolDef{
		Name:        "get_records",
		Description: "One page of client records in sheet order, optionally filtered by status category.",
		InputSchema: recordsSchema,
		Handler:     s.handleGetRecords,
	})
	s.registerTool(toolDef{
		Name:        "refresh_data",
		Description: "Reload the client sheet. The previous data is kept if the reload fails.",
		InputSchema: noArgsSchema,
		Handler:     s.handleRefreshData,
	})
	if s.chat == nil {
		return
	}
	s.registerTool(toolDef{
		Name:        "send_chat_message",
		Description: "Send a message to the dashboard assistant; replies carrying data replace the records.",
		InputSchema: chatSchema,
		Handler:     s.handleSendChatMessage,
	})
	s.registerTool(toolDef{
		Name:        "get_chat_log",
		Description: "The chat log of this session in send order.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetChatLog,
	})
}

func (s *Server) handleGetMetrics(_ context.Context, _ json.RawMessage) (any, error) {
	snap := s.dash.Snapshot()
	res := MetricsResult{
		Version:  snap.Version,
		State:    s.dash.State(),
		LoadedAt: snap.LoadedAt,
		Metrics:  snap.Metrics,
	}
	if err := s.dash.LastError(); err != nil {
		res.Error = err.Error()
	}
	return res, nil
}

func (s *Server) handleGetStatusBreakdown(_ context.Context, _ json.RawMessage) (any, error) {
	// Return an empty list rather than null for an empty record set.
	status := s.dash.Snapshot().Status
	if status == nil {
		status = analyzer.StatusBreakdown{}
	}
	return status, nil
}

func (s *Server) handleGetRevenueSeries(_ context.Context, _ json.RawMessage) (any, error) {
	return s.dash.Snapshot().Revenue, nil
}

func (s *Server) handleGetRecords(_ context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Page    int    `json:"page"`
		PerPage int    `json:"per_page"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PerPage <= 0 {
		params.PerPage = s.pageSize
	}

	snap := s.dash.Snapshot()
	rs := snap.Records
	if params.Status != "" {
		cat, err := analyzer.ParseCategory(params.Status)
		if err != nil {
			return nil, err
		}
		rs = analyzer.FilterByCategory(rs, cat)
	}

	page, pages := rs.Page(params.Page, params.PerPage)
	return RecordsResult{
		Version: snap.Version,
		Page:    params.Page,
		PerPage: params.PerPage,
		Pages:   pages,
		Total:   rs.Len(),
		Records: page,
	}, nil
}

func (s *Server) handleRefreshData(ctx context.Context, _ json.RawMessage) (any, error) {
	snap, err := s.dash.Refresh(ctx)
	if err != nil && !errors.Is(err, source.ErrSuperseded) {
		return nil, fmt.Errorf("refresh failed, keeping previous data: %w", err)
	}
	if snap == nil {
		snap = s.dash.Snapshot()
	}
	return RefreshResult{
		Version:     snap.Version,
		State:       s.dash.State(),
		Records:     snap.Records.Len(),
		Diagnostics: snap.Diagnostics,
	}, nil
}

func (s *Server) handleSendChatMessage(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	reply, err := s.chat.Send(ctx, params.Message)
	if err != nil {
		if reply.ID == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s (%w)", reply.Content, err)
	}
	return ChatResult{Reply: reply, Version: s.dash.Snapshot().Version}, nil
}

func (s *Server) handleGetChatLog(_ context.Context, _ json.RawMessage) (any, error) {
	return s.chat.Log(), nil
}
