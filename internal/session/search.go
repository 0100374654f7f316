package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/gateway"
	"github.com/T-Lind/health-frontend/internal/model"
)

// ClampResults forces k into the range the search endpoint accepts.
func ClampResults(k int) int {
	return min(max(k, gateway.MinSearchResults), gateway.MaxSearchResults)
}

// Searcher runs interaction searches. It holds no state.
type Searcher struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewSearcher creates a Searcher over gw.
func NewSearcher(gw Gateway, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{gateway: gw, logger: logger}
}

// Search returns up to k past interactions similar to query, in the order
// the server ranked them. Out-of-range k is clamped; an empty query fails
// without a remote call.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewValidation("search query is required")
	}

	clamped := ClampResults(k)
	if clamped != k {
		s.logger.Debug("search result count clamped", zap.Int("requested", k), zap.Int("used", clamped))
	}

	hits, err := s.gateway.Search(ctx, query, clamped)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []model.Hit{}
	}
	return hits, nil
}
