package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/T-Lind/health-frontend/internal/config"
	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
	"github.com/T-Lind/health-frontend/internal/render"
	"github.com/T-Lind/health-frontend/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ctrl   *session.Controller
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *session.Controller, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{ctrl: ctrl, cfg: cfg, logger: logger.Named("mcp")}
}

// Request types for each tool

// ClassifyRequest represents the arguments for classification_classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// DeleteRequest represents the arguments for classification_delete.
type DeleteRequest struct {
	Index *int `json:"index"`
}

// ClearRecordsRequest represents the arguments for classification_clear.
type ClearRecordsRequest struct {
	Confirm bool `json:"confirm"`
}

// AttachRequest represents the arguments for attachment_attach.
// Exactly one of Index or Latest must be set.
type AttachRequest struct {
	Index  *int `json:"index,omitempty"`
	Latest bool `json:"latest,omitempty"`
}

// SendRequest represents the arguments for chat_send.
type SendRequest struct {
	Message string `json:"message"`
}

// HistoryRequest represents the arguments for chat_history.
type HistoryRequest struct {
	HTML bool `json:"html,omitempty"`
}

// SearchRequest represents the arguments for interactions_search.
type SearchRequest struct {
	Query      string `json:"query"`
	NumResults *int   `json:"num_results,omitempty"`
}

// Response types

// ListOutput is the result of classification_list.
type ListOutput struct {
	Records []model.Entry `json:"records"`
	Count   int           `json:"count"`
}

// StatusOutput is the result of attachment tools.
type StatusOutput struct {
	Pending    bool              `json:"pending"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
}

// HistoryOutput is the result of chat_history and chat_refresh.
type HistoryOutput struct {
	Turns []model.Turn      `json:"turns,omitempty"`
	HTML  []render.HTMLTurn `json:"html_turns,omitempty"`
	Count int               `json:"count"`
}

// SearchOutput is the result of interactions_search.
type SearchOutput struct {
	Query   string      `json:"query"`
	Results []model.Hit `json:"results"`
}

// Handler implementations

// HandleClassify handles the classification_classify tool call.
func (h *Handlers) HandleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClassifyRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := h.ctrl.Classify(ctx, input.Text)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleList handles the classification_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := model.Entries(h.ctrl.Records())
	return successResult(ListOutput{Records: entries, Count: len(entries)})
}

// HandleDelete handles the classification_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if input.Index == nil {
		return errorResult(errors.NewValidation("index is required")), nil
	}

	result, err := h.ctrl.Delete(ctx, *input.Index)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleClearRecords handles the classification_clear tool call.
func (h *Handlers) HandleClearRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRecordsRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewValidation("confirm must be true to clear all classifications")), nil
	}

	result, err := h.ctrl.ClearRecords(ctx)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleAttach handles the attachment_attach tool call.
func (h *Handlers) HandleAttach(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AttachRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	var a model.Attachment
	switch {
	case input.Latest && input.Index != nil:
		return errorResult(errors.NewValidation("specify index or latest, not both")), nil
	case input.Latest:
		a, err = h.ctrl.AttachLatest()
	case input.Index != nil:
		a, err = h.ctrl.Attach(*input.Index)
	default:
		return errorResult(errors.NewValidation("index or latest is required")), nil
	}
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(StatusOutput{Pending: true, Attachment: &a})
}

// HandleCancel handles the attachment_cancel tool call.
func (h *Handlers) HandleCancel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.ctrl.Cancel()
	return successResult(StatusOutput{Pending: false})
}

// HandleStatus handles the attachment_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, ok := h.ctrl.Pending()
	out := StatusOutput{Pending: ok}
	if ok {
		out.Attachment = &a
	}
	return successResult(out)
}

// HandleSend handles the chat_send tool call.
func (h *Handlers) HandleSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SendRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	result, err := h.ctrl.Send(ctx, input.Message)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the chat_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	return successResult(historyOutput(h.ctrl.Transcript(), input.HTML))
}

// HandleRefresh handles the chat_refresh tool call.
func (h *Handlers) HandleRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	turns, err := h.ctrl.LoadTranscript(ctx)
	if err != nil {
		return h.fail(err), nil
	}
	return successResult(historyOutput(turns, false))
}

// HandleClear handles the chat_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.ctrl.ClearTranscript(ctx); err != nil {
		return h.fail(err), nil
	}
	return successResult(map[string]bool{"cleared": true})
}

// HandleSearch handles the interactions_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	k := h.cfg.DefaultSearchResults
	if input.NumResults != nil {
		k = *input.NumResults
	}

	hits, err := h.ctrl.Search(ctx, input.Query, k)
	if err != nil {
		return h.fail(err), nil
	}

	return successResult(SearchOutput{Query: input.Query, Results: hits})
}

func historyOutput(turns []model.Turn, html bool) HistoryOutput {
	out := HistoryOutput{Count: len(turns)}
	if html {
		out.HTML = render.TurnsHTML(turns)
	} else {
		out.Turns = turns
	}
	return out
}

// Result helpers

// fail logs a failed session call and converts it to an error result.
func (h *Handlers) fail(err error) *mcp.CallToolResult {
	if errors.CodeOf(err) == errors.ErrInternal {
		h.logger.Error("tool failed", zap.Error(err))
	} else {
		h.logger.Debug("tool failed", zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.ShelthError
	if stderrors.As(err, &sErr) {
		message := sErr.Message
		// Keep any context added by wrapping
		if full := err.Error(); full != sErr.Error() {
			message = strings.TrimSuffix(full, sErr.Error()) + sErr.Message
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code != errors.ErrInternal && sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
