package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nhle/carereminder/internal/model"
)

// DefaultKey is the KV key the notification feed is persisted under.
const DefaultKey = "notifications"

// DefaultRetention is how long a notification survives after creation.
const DefaultRetention = 7 * 24 * time.Hour

// ErrCorrupt wraps a persisted feed that could not be decoded.
var ErrCorrupt = errors.New("corrupt notification feed")

// dismissedSuffix names the companion key listing dismissed reminders.
const dismissedSuffix = ".dismissed"

// NotificationStore persists the notification feed as one JSON array
// under a single key. It never returns storage errors to callers: reads
// fall back to an empty feed and writes are logged.
type NotificationStore struct {
	kv        KV
	key       string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Options configures a NotificationStore. Zero values pick defaults.
type Options struct {
	Key       string
	Retention time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewNotificationStore creates a store backed by kv.
func NewNotificationStore(kv KV, opts Options) *NotificationStore {
	s := &NotificationStore{
		kv:        kv,
		key:       opts.Key,
		retention: opts.Retention,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.retention <= 0 {
		s.retention = DefaultRetention
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Load returns the persisted feed minus anything created more than the
// retention window ago. A missing or corrupt blob yields an empty feed.
func (s *NotificationStore) Load(ctx context.Context) []model.Notification {
	list, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("loading notifications failed", "key", s.key, "err", err)
		return []model.Notification{}
	}
	return list
}

// LoadStrict is Load that reports read and parse failures instead of
// hiding them. A missing key is not a failure; a blob that does not
// decode is reported as ErrCorrupt.
func (s *NotificationStore) LoadStrict(ctx context.Context) ([]model.Notification, error) {
	return s.read(ctx)
}

func (s *NotificationStore) read(ctx context.Context) ([]model.Notification, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []model.Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", s.key, err)
	}

	var stored []model.Notification
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("parsing %q: %w: %w", s.key, ErrCorrupt, err)
	}
	return s.Retain(stored), nil
}

// Retain returns the entries of list still inside the retention window.
func (s *NotificationStore) Retain(list []model.Notification) []model.Notification {
	kept := make([]model.Notification, 0, len(list))
	for _, n := range list {
		if s.Expired(n.CreatedAt) {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}

// Save writes the whole feed. Failures are logged and reported as false
// so the caller can keep serving its in-memory copy.
func (s *NotificationStore) Save(ctx context.Context, list []model.Notification) bool {
	if list == nil {
		list = []model.Notification{}
	}

	data, err := json.Marshal(list)
	if err != nil {
		s.logger.Warn("encoding notifications failed", "key", s.key, "err", err)
		return false
	}

	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("saving notifications failed", "key", s.key, "count", len(list), "err", err)
		return false
	}
	return true
}

// Clear drops the persisted feed and its dismissal list.
func (s *NotificationStore) Clear(ctx context.Context) {
	for _, key := range []string{s.key, s.key + dismissedSuffix} {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.logger.Warn("clearing notifications failed", "key", key, "err", err)
		}
	}
}

// Expired reports whether something stamped at t is past retention.
func (s *NotificationStore) Expired(t time.Time) bool {
	return t.Before(s.now().Add(-s.retention))
}

// LoadDismissed returns the ids of dismissed reminders with their
// dismissal time. Entries past retention are dropped; read failures
// yield an empty set.
func (s *NotificationStore) LoadDismissed(ctx context.Context) map[string]time.Time {
	key := s.key + dismissedSuffix
	out := make(map[string]time.Time)

	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return out
	}
	if err != nil {
		s.logger.Warn("loading dismissed reminders failed", "key", key, "err", err)
		return out
	}

	var stored map[string]time.Time
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("parsing dismissed reminders failed", "key", key, "err", err)
		return out
	}
	for id, at := range stored {
		if !s.Expired(at) {
			out[id] = at
		}
	}
	return out
}

// SaveDismissed writes the dismissal set. Failures are logged.
func (s *NotificationStore) SaveDismissed(ctx context.Context, dismissed map[string]time.Time) bool {
	key := s.key + dismissedSuffix
	data, err := json.Marshal(dismissed)
	if err != nil {
		s.logger.Warn("encoding dismissed reminders failed", "key", key, "err", err)
		return false
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.logger.Warn("saving dismissed reminders failed", "key", key, "err", err)
		return false
	}
	return true
}

// Reconcile merges freshly derived reminders with the persisted feed.
// A reminder already known keeps its read flag and creation time while
// taking the new title, message, time label and priority. Persisted
// custom entries are carried over unchanged; persisted reminders that
// were not derived again are dropped. The result is sorted.
func Reconcile(derived, persisted []model.Notification) []model.Notification {
	byID := make(map[string]model.Notification, len(persisted))
	for _, p := range persisted {
		byID[p.ID] = p
	}

	seen := make(map[string]bool, len(derived)+len(persisted))
	merged := make([]model.Notification, 0, len(derived)+len(persisted))

	for _, d := range derived {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		if prev, ok := byID[d.ID]; ok {
			d.Unread = prev.Unread
			d.CreatedAt = prev.CreatedAt
		}
		merged = append(merged, d)
	}

	for _, p := range persisted {
		if p.IsReminder() || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}

	Sort(merged)
	return merged
}

// Sort orders a feed by priority (high first), then newest first.
// Equal keys keep their relative order.
func Sort(list []model.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Priority.Rank(), list[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// Upsert replaces the entry with n's id, or prepends n when absent.
func Upsert(list []model.Notification, n model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(list)+1)
	replaced := false
	for _, existing := range list {
		if existing.ID == n.ID {
			out = append(out, n)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append([]model.Notification{n}, out...)
	}
	return out
}

// Remove returns list without the entry id, and whether it was present.
func Remove(list []model.Notification, id string) ([]model.Notification, bool) {
	out := make([]model.Notification, 0, len(list))
	found := false
	for _, n := range list {
		if n.ID == id {
			found = true
			continue
		}
		out = append(out, n)
	}
	return out, found
}

// MarkRead returns list with entry id marked read, and whether it was present.
func MarkRead(list []model.Notification, id string) ([]model.Notification, bool) {
	out := make([]model.Notification, len(list))
	found := false
	for i, n := range list {
		if n.ID == id {
			n.Unread = false
			found = true
		}
		out[i] = n
	}
	return out, found
}

// MarkAllRead returns a copy of list with every entry read.
func MarkAllRead(list []model.Notification) []model.Notification {
	out := make([]model.Notification, len(list))
	for i, n := range list {
		n.Unread = false
		out[i] = n
	}
	return out
}

// UnreadCount counts unread entries.
func UnreadCount(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if n.Unread {
			count++
		}
	}
	return count
}
