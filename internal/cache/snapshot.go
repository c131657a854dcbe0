package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio"
)

// ErrPersistence marks a failed cache write that survived one immediate
// retry. Losing an attendance event is a correctness violation, so callers
// must surface this instead of swallowing it.
var ErrPersistence = errors.New("cache persistence failure")

// snapshot is the on-disk wrapper around a cached payload.
type snapshot[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Payload   []T       `json:"payload"`
}

// writeSnapshot persists items as a single atomic write. renameio writes to a
// temporary file in the target directory and renames it over the destination,
// so a crash mid-write cannot corrupt an existing snapshot.
func writeSnapshot[T any](path string, items []T) error {
	snap := snapshot[T]{
		Timestamp: time.Now().UTC(),
		Payload:   items,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		// One immediate retry for transient filesystem hiccups, then the
		// failure is surfaced as a hard error.
		if retryErr := renameio.WriteFile(path, data, 0o600); retryErr != nil {
			return fmt.Errorf("%w: writing %s: %v", ErrPersistence, path, retryErr)
		}
	}
	return nil
}

// readSnapshot loads a snapshot. A missing file yields an empty payload; a
// corrupt file is an error so the caller can decide instead of silently
// starting over.
func readSnapshot[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from local configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read snapshot %s: %w", path, err)
	}

	var snap snapshot[T]
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("could not parse snapshot %s: %w", path, err)
	}
	return snap.Payload, nil
}
