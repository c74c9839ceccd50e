package engine

import (
	"time"

	"github.com/nhle/carereminder/internal/model"
)

// State is the lifecycle state of an Engine.
type State int

const (
	// StateIdle means nothing has been loaded yet.
	StateIdle State = iota
	// StateLoading means a refresh is in flight. The previous
	// notifications are still published.
	StateLoading
	// StateReady means the last refresh succeeded.
	StateReady
	// StateError means the last refresh failed; the notifications are
	// the last good (or cached) ones.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the published view of the feed. Notifications is a copy
// and may be retained by the receiver.
type Snapshot struct {
	Notifications []model.Notification
	Loading       bool

	// Error is the last refresh failure, empty when the last refresh
	// succeeded.
	Error string

	State       State
	UnreadCount int
	LastRefresh time.Time
}

// CustomInput describes an ad-hoc notification added by the caller.
type CustomInput struct {
	Title   string
	Message string

	// Priority defaults to normal.
	Priority model.Priority
}
