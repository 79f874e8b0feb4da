package clock

import "context"

// Store persists the per-user current session slot and the archive of
// completed sessions. A successful write is durable before it returns.
//
// Errors are models.ErrStoreRead / models.ErrStoreWrite wrapped around the
// driver error, or one of the lifecycle conflicts below.
type Store interface {
	// ReadCurrent returns the open session of userID, or nil when there is none.
	ReadCurrent(ctx context.Context, userID string) (*ClockSession, error)

	// WriteCurrent points the slot of userID at session. Opening fails with
	// models.ErrSessionAlreadyOpen while a different session is open. A nil
	// session clears the slot.
	WriteCurrent(ctx context.Context, userID string, session *ClockSession) error

	// AppendArchive stores a closed session under key. Appending the same
	// session again returns the record stored first; a different session under
	// an occupied key fails with models.ErrArchiveConflict.
	AppendArchive(ctx context.Context, key string, session *ClockSession) (*ClockSession, error)

	// ReadArchive returns archived sessions, newest clock-in first.
	ReadArchive(ctx context.Context, filter ArchiveFilter) ([]*ClockSession, error)

	// UpdateNotes replaces the notes of the open session sessionID.
	// It fails with models.ErrSessionArchived once the session is no longer current.
	UpdateNotes(ctx context.Context, userID, sessionID, notes string) error

	// CountOpen returns the number of users currently clocked in.
	CountOpen(ctx context.Context) (int64, error)
}
