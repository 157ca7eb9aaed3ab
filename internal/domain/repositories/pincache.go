package repositories

import "context"

// PinCache remembers, per view session, which room PINs were verified so re-entering
// a room skips the prompt. Entries are keyed by (session id, room key).
type PinCache interface {
	// Get returns the cached PIN and whether an entry exists
	Get(ctx context.Context, sessionID, roomKey string) (string, bool, error)

	Set(ctx context.Context, sessionID, roomKey, pin string) error

	// Delete removes the entry; a missing entry is not an error
	Delete(ctx context.Context, sessionID, roomKey string) error
}
