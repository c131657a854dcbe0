// Package syncer reconciles locally cached attendance events with the
// recognition server once connectivity is available.
package syncer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
)

// EventReporter is the slice of the server client the coordinator needs.
type EventReporter interface {
	SyncEvent(ctx context.Context, req faceapi.SyncEventRequest) error
	HealthCheck(ctx context.Context, probeURL string) bool
}

// EventStore is the slice of the offline cache the coordinator needs.
type EventStore interface {
	ListUnsynced() ([]cache.AttendanceEvent, error)
	MarkSynced(id string) error
	MarkFailed(id string) error
}

// Report summarizes one flush run.
type Report struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Coordinator flushes unsynced events oldest-first. Re-submission is
// idempotent because the server deduplicates by event id, so an interrupted
// flush can safely be repeated after a restart.
type Coordinator struct {
	store    EventStore
	reporter EventReporter

	// OnProgress, when set, is called after each event submission. Used by
	// the CLI to drive a progress bar.
	OnProgress func(ev cache.AttendanceEvent, err error)

	scheduler *gocron.Scheduler
}

func New(store EventStore, reporter EventReporter) *Coordinator {
	return &Coordinator{store: store, reporter: reporter}
}

// Flush re-submits every unsynced event. Individual failures do not abort
// the run: the failed event gets its attempt counted and the flush continues
// with the next one, so a single dead entry cannot block the queue.
// Persistence errors while marking events are returned after the run.
func (c *Coordinator) Flush(ctx context.Context) (Report, error) {
	unsynced, err := c.store.ListUnsynced()
	if err != nil {
		return Report{}, fmt.Errorf("could not list unsynced events: %w", err)
	}

	var report Report
	var firstMarkErr error
	for _, ev := range unsynced {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		report.Attempted++
		err := c.reporter.SyncEvent(ctx, faceapi.SyncEventRequest{
			EventID:      ev.ID,
			UserID:       ev.UserID,
			UserName:     ev.UserName,
			Success:      ev.Success,
			Timestamp:    ev.Timestamp.Unix(),
			DisplayImage: ev.DisplayImage,
			Distance:     ev.Distance,
		})

		var markErr error
		if err != nil {
			report.Failed++
			markErr = c.store.MarkFailed(ev.ID)
		} else {
			report.Succeeded++
			markErr = c.store.MarkSynced(ev.ID)
		}
		if markErr != nil && firstMarkErr == nil {
			firstMarkErr = markErr
		}

		if c.OnProgress != nil {
			c.OnProgress(ev, err)
		}
	}

	return report, firstMarkErr
}

// Run starts the periodic flush loop. Each tick probes the server first and
// skips the flush while offline; the first healthy probe after an outage
// flushes eagerly. Stop terminates the loop.
func (c *Coordinator) Run(interval time.Duration) error {
	if c.scheduler != nil {
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		if !c.reporter.HealthCheck(ctx, "") {
			return
		}

		report, err := c.Flush(ctx)
		if err != nil {
			log.Printf("sync flush failed: %v", err)
			return
		}
		if report.Attempted > 0 {
			log.Printf("sync flush: %d attempted, %d succeeded, %d failed",
				report.Attempted, report.Succeeded, report.Failed)
		}
	})
	if err != nil {
		return fmt.Errorf("could not schedule sync loop: %w", err)
	}

	scheduler.StartAsync()
	c.scheduler = scheduler
	return nil
}

// Stop terminates the periodic flush loop. Safe to call without Run.
func (c *Coordinator) Stop() {
	if c.scheduler != nil {
		c.scheduler.Stop()
		c.scheduler = nil
	}
}
