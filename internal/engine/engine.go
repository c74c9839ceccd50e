// Package engine keeps the reminder feed up to date. It polls the
// appointment source, derives reminders, reconciles them with the
// persisted feed and publishes snapshots to subscribers. All mutations
// write through to the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/carereminder/internal/model"
	"github.com/nhle/carereminder/internal/reminder"
	"github.com/nhle/carereminder/internal/source"
	"github.com/nhle/carereminder/internal/store"
)

// Errors returned by mutation actions.
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyNotification    = errors.New("custom notification needs a title or message")
	ErrInvalidPriority      = errors.New("invalid priority")
)

const (
	// DefaultInterval is the refresh period.
	DefaultInterval = 5 * time.Minute

	// DefaultUpcomingLimit bounds how many appointments a refresh fetches.
	DefaultUpcomingLimit = 10

	// fetchTimeout is the maximum time allowed for a single fetch.
	fetchTimeout = 30 * time.Second

	// justNow is the time label of a freshly added custom notification.
	justNow = "Vừa xong"
)

// Config tunes an Engine. Zero values pick defaults.
type Config struct {
	Interval      time.Duration
	UpcomingLimit int

	// PruneInactive skips appointments in a terminal status before
	// derivation.
	PruneInactive bool

	Now    func() time.Time
	Logger *slog.Logger
}

// Engine owns the published notification feed. It is the only writer of
// the notification store.
type Engine struct {
	source        source.AppointmentSource
	store         *store.NotificationStore
	interval      time.Duration
	limit         int
	pruneInactive bool
	now           func() time.Time
	logger        *slog.Logger

	// refreshMu serializes refresh passes so completions apply in order.
	refreshMu sync.Mutex

	// mu guards the feed state below.
	mu            sync.Mutex
	state         State
	notifications []model.Notification
	errMsg        string
	lastRefresh   time.Time
	hydrated      bool
	unsaved       bool

	// dismissed holds reminder ids the user dismissed, so re-derivation
	// does not bring them back.
	dismissed map[string]time.Time

	// pubMu keeps subscriber callbacks in publish order.
	pubMu   sync.Mutex
	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	lifeMu  sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates an Engine reading appointments from src and persisting
// to st. The engine is idle until Start or Refresh is called.
func New(src source.AppointmentSource, st *store.NotificationStore, cfg Config) *Engine {
	e := &Engine{
		source:        src,
		store:         st,
		interval:      cfg.Interval,
		limit:         cfg.UpcomingLimit,
		pruneInactive: cfg.PruneInactive,
		now:           cfg.Now,
		logger:        cfg.Logger,
		state:         StateIdle,
		notifications: []model.Notification{},
		subs:          make(map[int]func(Snapshot)),
		dismissed:     make(map[string]time.Time),
	}
	if e.interval <= 0 {
		e.interval = DefaultInterval
	}
	if e.limit <= 0 {
		e.limit = DefaultUpcomingLimit
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Start runs a refresh immediately and then every interval until
// Dispose is called or ctx is cancelled. Calling Start on a running
// engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.lifeMu.Lock()
	if e.running {
		e.lifeMu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	stop, done := e.stopCh, e.doneCh
	e.lifeMu.Unlock()

	e.setLoading()
	go e.loop(ctx, stop, done)
}

// Dispose stops future refreshes. A refresh already in flight is
// allowed to finish.
func (e *Engine) Dispose() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	if !e.running {
		return
	}
	close(e.stopCh)
	e.running = false
}

// Done returns a channel closed once the refresh loop has exited, or
// nil if the engine was never started.
func (e *Engine) Done() <-chan struct{} {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.doneCh
}

func (e *Engine) loop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		// A cancelled ctx ends the loop without Dispose; allow a new Start.
		e.lifeMu.Lock()
		if e.stopCh == stop {
			e.running = false
		}
		e.lifeMu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.Refresh(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Refresh(ctx)
		}
	}
}

// Refresh fetches upcoming appointments, derives reminders, reconciles
// them with the persisted feed, saves and publishes the result. A failed
// fetch leaves the last good feed published and sets the error flag.
func (e *Engine) Refresh(ctx context.Context) {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	runID := uuid.New().String()
	e.setLoading()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	appts, err := e.source.Upcoming(fetchCtx, e.limit)
	cancel()

	if err != nil {
		e.applyFailure(ctx, runID, err)
		return
	}
	e.applySuccess(ctx, runID, appts)
}

func (e *Engine) applySuccess(ctx context.Context, runID string, appts []model.Appointment) {
	now := e.now()

	eligible := appts
	if e.pruneInactive {
		eligible = make([]model.Appointment, 0, len(appts))
		for _, a := range appts {
			if a.IsActive() {
				eligible = append(eligible, a)
			}
		}
	}
	derived := reminder.DeriveAll(eligible, now)

	e.mu.Lock()
	e.syncDismissedLocked(ctx)
	derived = e.withoutDismissedLocked(derived)

	var merged []model.Notification
	if persisted, err := e.baselineLocked(ctx); err != nil {
		// Nothing trustworthy to merge with: publish the reminders but
		// leave the stored feed alone until a read succeeds.
		e.logger.Warn("skipping save, persisted feed unavailable", "run_id", runID, "err", err)
		merged = store.Reconcile(derived, nil)
	} else {
		merged = store.Reconcile(derived, persisted)
		e.unsaved = !e.store.Save(ctx, merged)
		e.hydrated = true
	}

	e.notifications = merged
	e.state = StateReady
	e.errMsg = ""
	e.lastRefresh = now
	snap := e.snapshotLocked()
	e.pubMu.Lock()
	e.mu.Unlock()

	e.logger.Debug("refresh complete",
		"run_id", runID,
		"appointments", len(appts),
		"reminders", len(derived),
		"notifications", len(merged),
	)
	e.publishLocked(snap)
}

func (e *Engine) applyFailure(ctx context.Context, runID string, err error) {
	e.logger.Warn("fetching upcoming appointments failed",
		"run_id", runID, "auth", source.IsAuthError(err), "err", err)

	e.mu.Lock()
	if !e.hydrated {
		// Nothing good in memory yet: fall back to the cache.
		cached, loadErr := e.store.LoadStrict(ctx)
		if loadErr != nil {
			e.logger.Warn("loading cached notifications failed", "run_id", runID, "err", loadErr)
		} else {
			e.notifications = cached
			e.hydrated = true
		}
	}
	e.state = StateError
	e.errMsg = err.Error()
	snap := e.snapshotLocked()
	e.pubMu.Lock()
	e.mu.Unlock()

	e.publishLocked(snap)
}

// MarkAsRead clears the unread flag of id.
func (e *Engine) MarkAsRead(ctx context.Context, id string) error {
	return e.mutate(ctx, func(list []model.Notification) ([]model.Notification, error) {
		out, ok := store.MarkRead(list, id)
		if !ok {
			return nil, fmt.Errorf("marking %s read: %w", id, ErrNotificationNotFound)
		}
		return out, nil
	})
}

// Dismiss removes id from the feed and the store. A dismissed reminder
// is not derived again while its dismissal is retained.
func (e *Engine) Dismiss(ctx context.Context, id string) error {
	return e.mutate(ctx, func(list []model.Notification) ([]model.Notification, error) {
		out, ok := store.Remove(list, id)
		if !ok {
			return nil, fmt.Errorf("dismissing %s: %w", id, ErrNotificationNotFound)
		}
		if strings.HasPrefix(id, model.ReminderIDPrefix) {
			e.syncDismissedLocked(ctx)
			e.dismissed[id] = e.now()
			e.store.SaveDismissed(ctx, e.dismissed)
		}
		return out, nil
	})
}

// MarkAllAsRead clears the unread flag of every notification.
func (e *Engine) MarkAllAsRead(ctx context.Context) error {
	return e.mutate(ctx, func(list []model.Notification) ([]model.Notification, error) {
		return store.MarkAllRead(list), nil
	})
}

// AddCustom prepends an ad-hoc notification and returns it.
func (e *Engine) AddCustom(ctx context.Context, in CustomInput) (model.Notification, error) {
	if in.Title == "" && in.Message == "" {
		return model.Notification{}, ErrEmptyNotification
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !priority.Valid() {
		return model.Notification{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	var created model.Notification
	err := e.mutate(ctx, func(list []model.Notification) ([]model.Notification, error) {
		now := e.now()
		created = model.Notification{
			ID:        uniqueCustomID(list, now),
			Type:      model.NotificationTypeCustom,
			Title:     in.Title,
			Message:   in.Message,
			Time:      justNow,
			CreatedAt: now,
			Unread:    true,
			Priority:  priority,
		}
		return store.Upsert(list, created), nil
	})
	return created, err
}

// uniqueCustomID returns "custom-<unix millis>", bumped past any id
// already in list.
func uniqueCustomID(list []model.Notification, now time.Time) string {
	taken := make(map[string]bool, len(list))
	for _, n := range list {
		taken[n.ID] = true
	}
	ms := now.UnixMilli()
	for {
		id := model.CustomIDPrefix + strconv.FormatInt(ms, 10)
		if !taken[id] {
			return id
		}
		ms++
	}
}

// mutate applies fn to the feed, writes the result through to the
// store and publishes it.
func (e *Engine) mutate(
	ctx context.Context,
	fn func([]model.Notification) ([]model.Notification, error),
) error {
	e.mu.Lock()
	if !e.hydrated {
		// Never overwrite the persisted feed with an empty one.
		persisted, err := e.baselineLocked(ctx)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.notifications = persisted
		e.hydrated = true
	}

	next, err := fn(e.notifications)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.unsaved = !e.store.Save(ctx, next)
	e.notifications = next
	snap := e.snapshotLocked()
	e.pubMu.Lock()
	e.mu.Unlock()

	e.publishLocked(snap)
	return nil
}

// baselineLocked returns the feed a refresh or mutation builds on. The
// store is authoritative until the engine holds a feed of its own; after
// that, a failed read or a failed earlier save falls back to the
// in-memory feed. A corrupt blob counts as empty. The error is non-nil
// only when no baseline exists.
func (e *Engine) baselineLocked(ctx context.Context) ([]model.Notification, error) {
	if e.unsaved {
		return e.store.Retain(e.notifications), nil
	}

	persisted, err := e.store.LoadStrict(ctx)
	switch {
	case err == nil:
		return persisted, nil
	case errors.Is(err, store.ErrCorrupt):
		e.logger.Warn("discarding corrupt notification feed", "err", err)
		return []model.Notification{}, nil
	case e.hydrated:
		e.logger.Warn("reading notifications failed, using in-memory feed", "err", err)
		return e.store.Retain(e.notifications), nil
	default:
		return nil, fmt.Errorf("loading notifications: %w", err)
	}
}

// syncDismissedLocked merges the persisted dismissal set into memory
// and drops expired entries.
func (e *Engine) syncDismissedLocked(ctx context.Context) {
	merged := e.store.LoadDismissed(ctx)
	for id, at := range e.dismissed {
		if _, ok := merged[id]; !ok && !e.store.Expired(at) {
			merged[id] = at
		}
	}
	e.dismissed = merged
}

func (e *Engine) withoutDismissedLocked(derived []model.Notification) []model.Notification {
	if len(e.dismissed) == 0 {
		return derived
	}
	out := make([]model.Notification, 0, len(derived))
	for _, n := range derived {
		if _, gone := e.dismissed[n.ID]; !gone {
			out = append(out, n)
		}
	}
	return out
}

func (e *Engine) setLoading() {
	e.mu.Lock()
	e.state = StateLoading
	snap := e.snapshotLocked()
	e.pubMu.Lock()
	e.mu.Unlock()

	e.publishLocked(snap)
}

// Snapshot returns the current published feed.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	list := make([]model.Notification, len(e.notifications))
	copy(list, e.notifications)
	return Snapshot{
		Notifications: list,
		Loading:       e.state == StateLoading,
		Error:         e.errMsg,
		State:         e.state,
		UnreadCount:   store.UnreadCount(list),
		LastRefresh:   e.lastRefresh,
	}
}
