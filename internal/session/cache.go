package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
)

// StorageKey is the one key the classification history is stored under.
const StorageKey = "classifications"

// cache owns the ordered classification history and its persisted copy.
type cache struct {
	mu      *sync.Mutex
	store   Storage
	gateway Gateway
	slot    *slot
	logger  *zap.Logger

	records []model.Record
}

func newCache(mu *sync.Mutex, store Storage, gw Gateway, s *slot, logger *zap.Logger) *cache {
	return &cache{mu: mu, store: store, gateway: gw, slot: s, logger: logger}
}

// Load replaces the in-memory history with the stored one. A missing,
// unreadable, or malformed value loads as an empty history.
func (c *cache) Load(ctx context.Context) {
	records := c.read(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
}

func (c *cache) read(ctx context.Context) []model.Record {
	data, found, err := c.store.Get(ctx, StorageKey)
	if err != nil {
		c.logger.Warn("classification history unreadable, starting empty", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("classification history corrupt, starting empty", zap.Error(err))
		return nil
	}
	// A null element or a record without a label decodes without error.
	for i, r := range records {
		if !r.Label.Valid() {
			c.logger.Warn("classification history corrupt, starting empty",
				zap.Int("record", i), zap.String("label", string(r.Label)))
			return nil
		}
	}
	return records
}

// Classify labels text remotely and appends the result. On failure the
// history is unchanged.
func (c *cache) Classify(ctx context.Context, text string) (model.Record, int, error) {
	if strings.TrimSpace(text) == "" {
		return model.Record{}, 0, errors.NewValidation("text to classify is required")
	}

	label, err := c.gateway.Classify(ctx, text)
	if err != nil {
		return model.Record{}, 0, err
	}

	rec := model.Record{Content: text, Label: label}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	c.persistLocked(ctx)
	return rec, len(c.records) - 1, nil
}

// Delete removes the record at index and clears the attachment if it was
// taken from that record.
func (c *cache) Delete(ctx context.Context, index int) (model.Record, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.atLocked(index)
	if err != nil {
		return model.Record{}, false, err
	}
	c.records = slices.Delete(c.records, index, index+1)
	c.persistLocked(ctx)
	cleared := c.slot.clearIfLocked(rec)
	return rec, cleared, nil
}

// Clear removes every record and the stored copy. A pending attachment taken
// from any removed record is dropped. If the stored copy cannot be removed
// nothing changes.
func (c *cache) Clear(ctx context.Context) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, StorageKey); err != nil {
		return 0, false, errors.NewInternal(fmt.Errorf("delete classification history: %w", err))
	}

	n := len(c.records)
	cleared := false
	for _, r := range c.records {
		if c.slot.clearIfLocked(r) {
			cleared = true
			break
		}
	}
	c.records = nil
	return n, cleared, nil
}

// Records returns a copy of the history in display order.
func (c *cache) Records() []model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Latest returns the most recently classified record.
func (c *cache) Latest() (model.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return model.Record{}, false
	}
	return c.records[len(c.records)-1], true
}

func (c *cache) atLocked(index int) (model.Record, error) {
	if index < 0 || index >= len(c.records) {
		return model.Record{}, errors.NewIndex(index, len(c.records))
	}
	return c.records[index], nil
}

// persistLocked writes the whole history. A write failure keeps the
// in-memory history authoritative; the next mutation rewrites it in full.
func (c *cache) persistLocked(ctx context.Context) {
	records := c.records
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Error("encode classification history", zap.Error(err))
		return
	}
	// The write must land even if the caller has already gone away.
	if err := c.store.Set(context.WithoutCancel(ctx), StorageKey, data); err != nil {
		c.logger.Error("persist classification history", zap.Error(err), zap.Int("records", len(records)))
	}
}
