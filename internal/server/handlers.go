package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/records"
	"github.com/blackwell-systems/clientdash/internal/source"
)

const maxPerPage = 500

// StateResponse describes the controller and its current snapshot.
type StateResponse struct {
	State       source.State        `json:"state"`
	Version     uint64              `json:"version"`
	Origin      source.Origin       `json:"origin,omitempty"`
	LoadedAt    time.Time           `json:"loaded_at"`
	Source      string              `json:"source,omitempty"`
	Records     int                 `json:"records"`
	Diagnostics records.Diagnostics `json:"diagnostics"`
	Error       string              `json:"error,omitempty"`
}

// RecordsResponse is one page of client records.
type RecordsResponse struct {
	Version uint64                 `json:"version"`
	Page    int                    `json:"page"`
	PerPage int                    `json:"per_page"`
	Pages   int                    `json:"pages"`
	Total   int                    `json:"total"`
	Records []records.ClientRecord `json:"records"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply and the snapshot version after
// any update the reply applied.
type ChatResponse struct {
	Reply   chat.Message `json:"reply"`
	Version uint64       `json:"version"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleState(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, stateOf(deps.Dashboard, deps.Dashboard.Snapshot()))
	}
}

func stateOf(d Dashboard, snap *source.Snapshot) StateResponse {
	res := StateResponse{
		State:       d.State(),
		Version:     snap.Version,
		Origin:      snap.Origin,
		LoadedAt:    snap.LoadedAt,
		Source:      d.SourceRef(),
		Records:     snap.Records.Len(),
		Diagnostics: snap.Diagnostics,
	}
	if err := d.LastError(); err != nil {
		res.Error = err.Error()
	}
	return res
}

func handleRecords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := parseIntParam(r, "page", 1, 0)
		if page < 1 {
			page = 1
		}
		perPage := parseIntParam(r, "per_page", deps.PageSize, maxPerPage)
		if perPage < 1 {
			perPage = deps.PageSize
		}

		snap := deps.Dashboard.Snapshot()
		rs := snap.Records
		if status := r.URL.Query().Get("status"); status != "" {
			cat, err := analyzer.ParseCategory(status)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			rs = analyzer.FilterByCategory(rs, cat)
		}

		recs, pages := rs.Page(page, perPage)
		writeJSON(w, http.StatusOK, RecordsResponse{
			Version: snap.Version,
			Page:    page,
			PerPage: perPage,
			Pages:   pages,
			Total:   rs.Len(),
			Records: recs,
		})
	}
}

func handleMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Dashboard.Snapshot().Metrics)
	}
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := deps.Dashboard.Snapshot().Status
		if status == nil {
			status = analyzer.StatusBreakdown{}
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func handleRevenue(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Dashboard.Snapshot().Revenue)
	}
}

func handleRefresh(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Dashboard.Refresh(r.Context())
		if err != nil && !errors.Is(err, source.ErrSuperseded) {
			writeError(w, fmt.Errorf("refresh failed, keeping previous data: %w", err))
			return
		}
		if snap == nil {
			snap = deps.Dashboard.Snapshot()
		}
		writeJSON(w, http.StatusOK, stateOf(deps.Dashboard, snap))
	}
}

func handleUpdate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "reading request body: %v", err)
			return
		}

		snap, err := deps.Dashboard.ApplyExternalUpdate(source.UpdatePayload(body))
		if err != nil && !errors.Is(err, source.ErrSuperseded) {
			writeError(w, err)
			return
		}
		if snap == nil {
			snap = deps.Dashboard.Snapshot()
		}
		writeJSON(w, http.StatusOK, stateOf(deps.Dashboard, snap))
	}
}

func handleChatLog(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Chat.Log())
	}
}

func handleChatSend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		reply, err := deps.Chat.Send(r.Context(), req.Message)
		if err != nil {
			if reply.ID == "" {
				// Blank message, or the request ended while another send was in flight.
				writeError(w, err)
				return
			}
			deps.Logger.Warn(logModule, "chat webhook failed", map[string]any{"error": err.Error()})
			// The failure text is already in the chat log; surface it too.
			httpError(w, statusFor(err), "upstream_error", "%s", reply.Content)
			return
		}
		writeJSON(w, http.StatusOK, ChatResponse{Reply: reply, Version: deps.Dashboard.Snapshot().Version})
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *source.ValidationError
	var ferr *source.FetchError
	var perr *records.ParseError
	switch {
	case errors.As(err, &verr), errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrNoSource):
		return http.StatusConflict
	case errors.As(err, &ferr), errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	errType := "api_error"
	switch code {
	case http.StatusBadRequest:
		errType = "invalid_request_error"
	case http.StatusConflict:
		errType = "no_source"
	case http.StatusBadGateway:
		errType = "upstream_error"
	}
	httpError(w, code, errType, "%v", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
