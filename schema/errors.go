package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownEvent indicates a realtime message without a usable type.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrLastTab indicates the last remaining tab cannot be closed.
	ErrLastTab = errors.New("cannot close the last tab")
	// ErrNoTabs indicates no tab surface exists yet.
	ErrNoTabs = errors.New("no tabs")
	// ErrEmptyMessage indicates the outbound message text was empty.
	ErrEmptyMessage = errors.New("empty message")
	// ErrSnapshotNotFound indicates a snapshot id is not stored.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInvalidURL indicates a navigation target could not be parsed.
	ErrInvalidURL = errors.New("invalid url")
)
