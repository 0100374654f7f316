package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
)

// Controller is the single entry point for session state.
type Controller struct {
	id     string
	logger *zap.Logger

	mu       sync.Mutex
	cache    *cache
	slot     *slot
	chat     *chat
	searcher *Searcher
}

// New creates a Controller. Call Open before use to load prior state.
func New(store Storage, gw Gateway, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := newSessionID()
	logger = logger.With(zap.String("session_id", id))

	c := &Controller{id: id, logger: logger}
	c.slot = newSlot(&c.mu)
	c.cache = newCache(&c.mu, store, gw, c.slot, logger)
	c.chat = newChat(&c.mu, gw, logger)
	c.searcher = NewSearcher(gw, logger)
	return c
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ID returns the session id used in logs.
func (c *Controller) ID() string {
	return c.id
}

// OpenOutput reports what Open restored.
type OpenOutput struct {
	SessionID        string `json:"session_id"`
	Records          int    `json:"records"`
	Turns            int    `json:"turns"`
	TranscriptLoaded bool   `json:"transcript_loaded"`
}

// Open loads the classification history from storage and the transcript
// from the server in parallel. The output is always returned; a non-nil
// error means only the transcript could not be fetched, and the controller
// stays usable with an empty transcript.
func (c *Controller) Open(ctx context.Context) (*OpenOutput, error) {
	var g errgroup.Group
	g.Go(func() error {
		c.cache.Load(ctx)
		return nil
	})
	g.Go(func() error {
		return c.chat.Load(ctx)
	})
	err := g.Wait()
	if err != nil {
		c.logger.Warn("transcript not loaded", zap.Error(err))
	}

	out := &OpenOutput{
		SessionID:        c.id,
		Records:          len(c.cache.Records()),
		Turns:            len(c.chat.Turns()),
		TranscriptLoaded: err == nil,
	}
	c.logger.Debug("session opened", zap.Int("records", out.Records), zap.Int("turns", out.Turns))
	return out, err
}

// LoadRecords loads only the classification history from storage. It makes
// no network call, for callers that never show the transcript.
func (c *Controller) LoadRecords(ctx context.Context) int {
	c.cache.Load(ctx)
	n := len(c.cache.Records())
	c.logger.Debug("classification history loaded", zap.Int("records", n))
	return n
}

// ClassifyOutput is the result of Classify.
type ClassifyOutput struct {
	Index    int            `json:"index"`
	Record   model.Record   `json:"record"`
	Severity model.Severity `json:"severity"`
	Advice   string         `json:"advice"`
}

// Classify labels text and appends it to the history.
func (c *Controller) Classify(ctx context.Context, text string) (*ClassifyOutput, error) {
	rec, index, err := c.cache.Classify(ctx, text)
	if err != nil {
		c.logger.Debug("classify failed", zap.Error(err))
		return nil, err
	}
	c.logger.Info("message classified", zap.Int("index", index), zap.String("label", string(rec.Label)))
	return &ClassifyOutput{
		Index:    index,
		Record:   rec,
		Severity: rec.Label.Severity(),
		Advice:   rec.Label.Advice(),
	}, nil
}

// Records returns the classification history, oldest first.
func (c *Controller) Records() []model.Record {
	records := c.cache.Records()
	if records == nil {
		return []model.Record{}
	}
	return records
}

// Latest returns the most recent classification.
func (c *Controller) Latest() (model.Record, bool) {
	return c.cache.Latest()
}

// DeleteOutput is the result of Delete.
type DeleteOutput struct {
	Deleted           model.Record `json:"deleted"`
	AttachmentCleared bool         `json:"attachment_cleared"`
}

// Delete removes the record at index. A pending attachment taken from that
// record is dropped in the same step.
func (c *Controller) Delete(ctx context.Context, index int) (*DeleteOutput, error) {
	rec, cleared, err := c.cache.Delete(ctx, index)
	if err != nil {
		return nil, err
	}
	c.logger.Info("classification deleted", zap.Int("index", index), zap.Bool("attachment_cleared", cleared))
	return &DeleteOutput{Deleted: rec, AttachmentCleared: cleared}, nil
}

// ClearOutput is the result of ClearRecords.
type ClearOutput struct {
	Removed           int  `json:"removed"`
	AttachmentCleared bool `json:"attachment_cleared"`
}

// ClearRecords deletes the whole classification history, locally and in
// storage. A pending attachment taken from any of the records is dropped.
func (c *Controller) ClearRecords(ctx context.Context) (*ClearOutput, error) {
	n, cleared, err := c.cache.Clear(ctx)
	if err != nil {
		c.logger.Warn("classification history not cleared", zap.Error(err))
		return nil, err
	}
	c.logger.Info("classification history cleared", zap.Int("removed", n), zap.Bool("attachment_cleared", cleared))
	return &ClearOutput{Removed: n, AttachmentCleared: cleared}, nil
}

// Attach stages the record at index for the next chat message.
func (c *Controller) Attach(index int) (model.Attachment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.cache.atLocked(index)
	if err != nil {
		return model.Attachment{}, err
	}
	return c.slot.attachLocked(rec), nil
}

// AttachLatest stages the most recent record.
func (c *Controller) AttachLatest() (model.Attachment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.cache.records)
	if n == 0 {
		return model.Attachment{}, errors.NewIndex(0, 0)
	}
	return c.slot.attachLocked(c.cache.records[n-1]), nil
}

// Cancel drops the pending attachment, if any.
func (c *Controller) Cancel() {
	c.slot.Cancel()
}

// Pending returns the attachment the next message will carry.
func (c *Controller) Pending() (model.Attachment, bool) {
	return c.slot.Pending()
}

// SendOutput is the result of Send.
type SendOutput struct {
	Reply    string            `json:"reply"`
	Attached *model.Attachment `json:"attached,omitempty"`
}

// Send posts text to the assistant with the pending attachment, if any.
// The user turn is recorded before the call and kept on failure; the
// attachment is spent either way.
func (c *Controller) Send(ctx context.Context, text string) (*SendOutput, error) {
	reply, attached, err := c.chat.send(ctx, text, c.slot)
	if err != nil {
		if attached != nil {
			c.logger.Warn("chat send failed, attachment not restored", zap.Error(err))
		}
		return nil, err
	}
	c.logger.Debug("chat reply received", zap.Bool("attached", attached != nil), zap.Int("reply_len", len(reply)))
	return &SendOutput{Reply: reply, Attached: attached}, nil
}

// LoadTranscript replaces the transcript with the server's copy.
func (c *Controller) LoadTranscript(ctx context.Context) ([]model.Turn, error) {
	if err := c.chat.Load(ctx); err != nil {
		return nil, err
	}
	return c.Transcript(), nil
}

// Transcript returns the current chat turns, oldest first.
func (c *Controller) Transcript() []model.Turn {
	turns := c.chat.Turns()
	if turns == nil {
		return []model.Turn{}
	}
	return turns
}

// ClearTranscript clears the chat on the server and locally.
func (c *Controller) ClearTranscript(ctx context.Context) error {
	if err := c.chat.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("transcript cleared")
	return nil
}

// Search finds past interactions similar to query.
func (c *Controller) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	return c.searcher.Search(ctx, query, k)
}
