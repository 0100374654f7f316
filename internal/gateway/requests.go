package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
)

// ClassifyRequest is the body of POST /ml-predictions.
type ClassifyRequest struct {
	InputText string `json:"input_text"`
}

// Validate checks required fields.
func (r ClassifyRequest) Validate() error {
	if strings.TrimSpace(r.InputText) == "" {
		return errors.NewValidation("text to classify is required")
	}
	return nil
}

// ClassifyResponse is the body returned by POST /ml-predictions.
type ClassifyResponse struct {
	Classification string `json:"classification"`
}

func (r ClassifyResponse) label() (model.Label, error) {
	if r.Classification == "" {
		return "", fmt.Errorf("response missing classification")
	}
	return model.ParseLabel(r.Classification)
}

// ConverseRequest is the body of POST /chat. Exchange and Classification
// carry the attached message and its label, and are empty when nothing is
// attached.
type ConverseRequest struct {
	Message        string `json:"message"`
	Exchange       string `json:"exchange"`
	Classification string `json:"classification"`
}

// NewConverseRequest builds the request for text with an optional attachment.
func NewConverseRequest(text string, attached *model.Attachment) ConverseRequest {
	req := ConverseRequest{Message: text}
	if attached != nil {
		req.Exchange = attached.Content
		req.Classification = string(attached.Label)
	}
	return req
}

// Validate checks required fields.
func (r ConverseRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.NewValidation("chat message is required")
	}
	if r.Classification != "" && !model.Label(r.Classification).Valid() {
		return errors.NewValidation(fmt.Sprintf("attached classification %q is not a known label", r.Classification))
	}
	return nil
}

// ConverseResponse is the body returned by POST /chat.
type ConverseResponse struct {
	Response *string `json:"response"`
}

func (r ConverseResponse) reply() (string, error) {
	if r.Response == nil {
		return "", fmt.Errorf("response missing reply")
	}
	return *r.Response, nil
}

// checkTurns rejects turns without a known role. A missing role or a null
// element decodes without error, so it is checked after decoding.
func checkTurns(turns []model.Turn) error {
	for i, t := range turns {
		if !t.Speaker.Valid() {
			return fmt.Errorf("turn %d has no valid role", i)
		}
	}
	return nil
}

// SearchRequest is the body of POST /search-interactions.
type SearchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

// Validate checks the query and the result bound.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.NewValidation("search query is required")
	}
	if r.NumResults < MinSearchResults || r.NumResults > MaxSearchResults {
		return errors.NewValidation(fmt.Sprintf("num_results must be between %d and %d, got %d",
			MinSearchResults, MaxSearchResults, r.NumResults))
	}
	return nil
}

// SearchResponse holds the hits returned by POST /search-interactions.
// The endpoint answers with either a bare array or {"results": [...]}.
type SearchResponse struct {
	Hits []model.Hit
}

// wireHit is one search result as sent. Similarity is a pointer so that a
// missing score is distinguishable from zero.
type wireHit struct {
	Content    string   `json:"content"`
	Context    string   `json:"context"`
	Similarity *float64 `json:"similarity"`
}

// UnmarshalJSON accepts both response shapes and requires a similarity on
// every hit.
func (r *SearchResponse) UnmarshalJSON(data []byte) error {
	var raw []*wireHit
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Results []*wireHit `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		raw = wrapped.Results
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	hits := make([]model.Hit, 0, len(raw))
	for i, h := range raw {
		if h == nil {
			return fmt.Errorf("result %d is null", i)
		}
		if h.Similarity == nil {
			return fmt.Errorf("result %d missing similarity", i)
		}
		hits = append(hits, model.Hit{Content: h.Content, Context: h.Context, Similarity: *h.Similarity})
	}
	r.Hits = hits
	return nil
}
