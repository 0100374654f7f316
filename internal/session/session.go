// Package session coordinates the dashboard's three data streams: the
// locally persisted classification history, the server-mirrored chat
// transcript, and the single-use attachment that carries one classified
// message into the next chat turn.
//
// All state lives behind one Controller. Its components share the
// controller's mutex, so a compound change (delete a record and clear the
// attachment that pointed at it; append a user turn and take the
// attachment) is atomic with respect to every other operation. Remote calls
// never hold the mutex.
package session

import (
	"context"

	"github.com/T-Lind/health-frontend/internal/model"
)

// Storage persists the classification history between runs.
// *db.LocalStorage implements it.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Gateway is the remote API the session drives.
// *gateway.Client implements it.
type Gateway interface {
	Classify(ctx context.Context, text string) (model.Label, error)
	Converse(ctx context.Context, text string, attached *model.Attachment) (string, error)
	FetchHistory(ctx context.Context) ([]model.Turn, error)
	ClearHistory(ctx context.Context) error
	Search(ctx context.Context, query string, k int) ([]model.Hit, error)
}
