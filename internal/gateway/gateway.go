// Package gateway is the HTTP client for the remote Shelth API: message
// classification, assistant chat, chat history, and interaction search.
//
// Every operation has an explicit request and response type that is
// validated at the boundary; failures are reported as coded errors from
// internal/errors (REMOTE_ERROR, TIMED_OUT, UNAUTHORIZED, VALIDATION_ERROR).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/T-Lind/health-frontend/internal/config"
	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
)

// Operation names, used in error messages and log fields.
const (
	OpClassify     = "classify"
	OpConverse     = "converse"
	OpFetchHistory = "fetch_history"
	OpClearHistory = "clear_history"
	OpSearch       = "search"
)

// Result count bounds accepted by the search endpoint.
const (
	MinSearchResults = 1
	MaxSearchResults = 10
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string

	// Timeout bounds each call. Zero disables the per-call deadline.
	Timeout time.Duration

	// HTTPClient defaults to a plain http.Client.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the remote Shelth API. It holds no session state and is
// safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// New creates a Client from opts.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		timeout: opts.Timeout,
		http:    httpClient,
		logger:  logger.Named("gateway"),
	}
}

// FromConfig creates a Client using the API settings in cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(Options{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
	})
}

// Classify asks the remote model to label text.
func (c *Client) Classify(ctx context.Context, text string) (model.Label, error) {
	req := ClassifyRequest{InputText: text}
	if err := req.Validate(); err != nil {
		return "", err
	}

	var resp ClassifyResponse
	if err := c.do(ctx, OpClassify, http.MethodPost, "/ml-predictions", req, &resp); err != nil {
		return "", err
	}
	label, err := resp.label()
	if err != nil {
		return "", errors.NewRemote(OpClassify, 0, err.Error(), err)
	}
	return label, nil
}

// Converse sends a chat message, optionally with an attached classified
// message as context, and returns the assistant's reply.
func (c *Client) Converse(ctx context.Context, text string, attached *model.Attachment) (string, error) {
	req := NewConverseRequest(text, attached)
	if err := req.Validate(); err != nil {
		return "", err
	}

	var resp ConverseResponse
	if err := c.do(ctx, OpConverse, http.MethodPost, "/chat", req, &resp); err != nil {
		return "", err
	}
	reply, err := resp.reply()
	if err != nil {
		return "", errors.NewRemote(OpConverse, 0, err.Error(), err)
	}
	return reply, nil
}

// FetchHistory returns the server's transcript for the current credential.
func (c *Client) FetchHistory(ctx context.Context) ([]model.Turn, error) {
	var turns []model.Turn
	if err := c.do(ctx, OpFetchHistory, http.MethodGet, "/chat-history", nil, &turns); err != nil {
		return nil, err
	}
	if err := checkTurns(turns); err != nil {
		return nil, errors.NewRemote(OpFetchHistory, 0, err.Error(), err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	return turns, nil
}

// ClearHistory deletes the server's transcript for the current credential.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, OpClearHistory, http.MethodPost, "/clear-chat", nil, nil)
}

// Search returns up to k past interactions most similar to query, in the
// server's order (descending similarity).
func (c *Client) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	req := SearchRequest{Query: query, NumResults: k}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := c.do(ctx, OpSearch, http.MethodPost, "/search-interactions", req, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

// do performs one JSON round trip. body and out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := ulid.Make().String()
	log := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal(fmt.Errorf("encode %s request: %w", op, err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("build %s request: %w", op, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	log.Debug("remote call started", zap.String("method", method), zap.String("path", path))

	res, err := c.http.Do(req)
	if err != nil {
		log.Warn("remote call failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return transportError(ctx, op, err)
	}
	defer res.Body.Close()

	log = log.With(zap.Int("status", res.StatusCode), zap.Duration("duration", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		sErr := statusError(op, res)
		log.Warn("remote call rejected", zap.Error(sErr))
		return sErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return transportError(ctx, op, err)
			}
			log.Warn("malformed response", zap.Error(err))
			return errors.NewRemote(op, res.StatusCode, "malformed response: "+err.Error(), err)
		}
	} else {
		_, _ = io.Copy(io.Discard, res.Body)
	}

	log.Debug("remote call completed")
	return nil
}

// transportError classifies a failure that happened before a response arrived.
func transportError(ctx context.Context, op string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) || ctx.Err() != nil {
		return errors.NewTimedOut(op, err)
	}
	return errors.NewRemote(op, 0, err.Error(), err)
}

// statusError maps a non-2xx response to a coded error, carrying the
// server's {"error": "..."} message when there is one.
func statusError(op string, res *http.Response) error {
	msg := http.StatusText(res.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return errors.NewUnauthorized(op)
	case op == OpSearch && (res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnprocessableEntity):
		return errors.NewValidation(fmt.Sprintf("search rejected: %s", msg))
	case res.StatusCode == http.StatusGatewayTimeout:
		return errors.NewTimedOut(op, nil)
	default:
		return errors.NewRemote(op, res.StatusCode, msg, nil)
	}
}
