package session

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
)

// chat owns the transcript. It mirrors the server on Load and Clear and is
// appended to optimistically on send.
type chat struct {
	mu      *sync.Mutex
	gateway Gateway
	logger  *zap.Logger

	turns []model.Turn
	loads singleflight.Group
}

func newChat(mu *sync.Mutex, gw Gateway, logger *zap.Logger) *chat {
	return &chat{mu: mu, gateway: gw, logger: logger}
}

// Load replaces the transcript with the server's copy. Concurrent calls
// share one fetch, which runs detached from any single caller's
// cancellation; each caller still returns as soon as its own ctx is done.
// On failure the current transcript is kept.
func (c *chat) Load(ctx context.Context) error {
	ch := c.loads.DoChan("history", func() (any, error) {
		turns, err := c.gateway.FetchHistory(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.turns = slices.Clone(turns)
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("transcript load shared with in-flight fetch")
		}
		return res.Err
	case <-ctx.Done():
		return errors.NewTimedOut("fetch_history", ctx.Err())
	}
}

// send appends the user turn and takes the attachment in one critical
// section, then asks the assistant. A failed call leaves the user turn in
// place and does not restore the attachment.
func (c *chat) send(ctx context.Context, text string, s *slot) (string, *model.Attachment, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, errors.NewValidation("chat message is required")
	}

	c.mu.Lock()
	c.turns = append(c.turns, model.Turn{Speaker: model.SpeakerUser, Content: text})
	attached := s.consumeLocked()
	c.mu.Unlock()

	reply, err := c.gateway.Converse(ctx, text, attached)
	if err != nil {
		return "", attached, err
	}

	c.mu.Lock()
	c.turns = append(c.turns, model.Turn{Speaker: model.SpeakerAssistant, Content: reply})
	c.mu.Unlock()

	return reply, attached, nil
}

// Clear empties the server transcript, then the local one. On failure
// nothing changes locally.
func (c *chat) Clear(ctx context.Context) error {
	if err := c.gateway.ClearHistory(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
	return nil
}

// Turns returns a copy of the transcript.
func (c *chat) Turns() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.turns)
}
