// Package cache is the kiosk's durable offline store: an append-only log of
// attendance events awaiting sync and a wholesale snapshot of the last known
// user roster. It keeps the kiosk auditable through network outages.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-kiosk/internal/faceapi"
)

const (
	eventsFile = "logs_cache.json"
	usersFile  = "users_cache.json"
)

// Store is a file-backed cache. All mutations serialize through one
// in-process lock and go to disk before returning; the store is not designed
// for multi-process concurrent writers.
type Store struct {
	dir       string
	maxEvents int

	mu sync.Mutex
}

// Open prepares the cache directory. maxEvents caps the attendance log;
// once over capacity the oldest entries are dropped first.
func Open(dir string, maxEvents int) (*Store, error) {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	return &Store{dir: dir, maxEvents: maxEvents}, nil
}

func (s *Store) eventsPath() string { return filepath.Join(s.dir, eventsFile) }
func (s *Store) usersPath() string  { return filepath.Join(s.dir, usersFile) }

// RecordEvent appends an attendance event with syncState pending and
// persists it before returning, so the event survives a crash immediately
// after the call. Missing IDs and timestamps are filled in.
func (s *Store) RecordEvent(ev *AttendanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := readSnapshot[AttendanceEvent](s.eventsPath())
	if err != nil {
		return err
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	ev.State = SyncPending
	ev.Attempts = 0
	ev.CachedAt = time.Now().UTC()

	events = append(events, *ev)

	// FIFO eviction once over capacity.
	if over := len(events) - s.maxEvents; over > 0 {
		events = events[over:]
	}

	return writeSnapshot(s.eventsPath(), events)
}

// Events returns all cached attendance events, oldest first.
func (s *Store) Events() ([]AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readSnapshot[AttendanceEvent](s.eventsPath())
}

// ListUnsynced returns the events that still need to reach the server,
// oldest first, preserving chronological attendance ordering for the flush.
func (s *Store) ListUnsynced() ([]AttendanceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := readSnapshot[AttendanceEvent](s.eventsPath())
	if err != nil {
		return nil, err
	}

	var unsynced []AttendanceEvent
	for _, ev := range events {
		if ev.Unsynced() {
			unsynced = append(unsynced, ev)
		}
	}
	return unsynced, nil
}

// UnsyncedCount reports how many events still await sync. Read failures
// count as zero; the caller gets the error from ListUnsynced when it matters.
func (s *Store) UnsyncedCount() int {
	unsynced, err := s.ListUnsynced()
	if err != nil {
		return 0
	}
	return len(unsynced)
}

// MarkSynced transitions an event to synced. Absent ids and already-synced
// events are no-ops, which makes the call safe against races with eviction
// and repeated flushes.
func (s *Store) MarkSynced(id string) error {
	return s.updateEvent(id, func(ev *AttendanceEvent) bool {
		if ev.State == SyncSynced {
			return false
		}
		ev.State = SyncSynced
		ev.SyncedAt = time.Now().UTC()
		return true
	})
}

// MarkFailed counts a failed sync attempt. The event stays eligible for the
// next flush. Synced events and absent ids are no-ops.
func (s *Store) MarkFailed(id string) error {
	return s.updateEvent(id, func(ev *AttendanceEvent) bool {
		if ev.State == SyncSynced {
			return false
		}
		ev.State = SyncFailed
		ev.Attempts++
		return true
	})
}

// updateEvent applies fn to the event with the given id and persists the log
// when fn reports a change.
func (s *Store) updateEvent(id string, fn func(*AttendanceEvent) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := readSnapshot[AttendanceEvent](s.eventsPath())
	if err != nil {
		return err
	}

	changed := false
	for i := range events {
		if events[i].ID == id {
			changed = fn(&events[i])
			break
		}
	}
	if !changed {
		return nil
	}
	return writeSnapshot(s.eventsPath(), events)
}

// CacheRoster replaces the cached user roster wholesale with the given
// snapshot (last writer wins, no merging).
func (s *Store) CacheRoster(users []faceapi.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSnapshot(s.usersPath(), users)
}

// Roster returns the last cached user roster.
func (s *Store) Roster() ([]faceapi.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readSnapshot[faceapi.UserRecord](s.usersPath())
}

// UserByID looks a user up in the cached roster.
func (s *Store) UserByID(id string) (*faceapi.UserRecord, bool) {
	users, err := s.Roster()
	if err != nil {
		return nil, false
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], true
		}
	}
	return nil, false
}

// ClearSynced drops events that already reached the server, keeping the
// unsynced tail.
func (s *Store) ClearSynced() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := readSnapshot[AttendanceEvent](s.eventsPath())
	if err != nil {
		return err
	}

	var remaining []AttendanceEvent
	for _, ev := range events {
		if ev.Unsynced() {
			remaining = append(remaining, ev)
		}
	}
	if len(remaining) == len(events) {
		return nil
	}
	return writeSnapshot(s.eventsPath(), remaining)
}

// ClearAll removes both snapshot files. Used by the settings UI when a kiosk
// is re-provisioned.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.eventsPath(), s.usersPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("could not remove %s: %w", path, err)
		}
	}
	return nil
}
