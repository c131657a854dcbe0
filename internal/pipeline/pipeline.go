// Package pipeline drives one recognition attempt end to end: capture an
// image, submit it for recognition, record the outcome in the offline cache,
// and notify subscribers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
	"github.com/kozaktomas/face-kiosk/internal/imaging"
)

// Capturer is the camera controller slice the orchestrator needs.
type Capturer interface {
	Capture(ctx context.Context) (*camera.Image, error)
}

// Recognizer is the server client slice the orchestrator needs.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte, displayImage string) (*faceapi.RecognitionResult, error)
}

// EventRecorder is the offline cache slice the orchestrator needs.
type EventRecorder interface {
	RecordEvent(ev *cache.AttendanceEvent) error
}

// FailReason classifies why an attempt did not produce a recognition result.
type FailReason string

const (
	FailNone               FailReason = ""
	FailCaptureUnavailable FailReason = "capture_unavailable"
	FailOfflineNoMatch     FailReason = "offline_no_match"
	FailProtocolError      FailReason = "protocol_error"
	FailPersistence        FailReason = "persistence_failure"
)

// Outcome is the result of one recognition attempt.
type Outcome struct {
	Matched   bool       `json:"matched"`
	UserID    string     `json:"user_id,omitempty"`
	UserName  string     `json:"user_name,omitempty"`
	Distance  float64    `json:"distance,omitempty"`
	Threshold float64    `json:"threshold,omitempty"`
	Reason    FailReason `json:"fail_reason,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
}

// Failed reports whether the attempt ended without a recognition result.
func (o *Outcome) Failed() bool {
	return o.Reason != FailNone
}

// State of an attempt as it moves through the pipeline.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitingCapture     State = "awaiting_capture"
	StateAwaitingRecognition State = "awaiting_recognition"
	StateCompleted           State = "completed"
	StateFailed              State = "failed"
)

// Event is published to subscribers at every state change. Outcome is set
// only on completed and failed events.
type Event struct {
	State   State
	Outcome *Outcome
	At      time.Time
}

// Options tune the orchestrator. Zero values fall back to defaults.
type Options struct {
	CaptureRetries int           // extra capture attempts after a timeout (default 2)
	RetryInterval  time.Duration // spacing between capture retries (default 1s)
}

// Orchestrator wires the capture controller, recognition client and offline
// cache together. Dependencies are injected once at construction and passed
// down; there is no global lookup.
type Orchestrator struct {
	camera     Capturer
	recognizer Recognizer
	recorder   EventRecorder

	captureRetries int
	retryInterval  time.Duration

	mu          sync.Mutex
	state       State
	subscribers []chan Event
}

func New(cam Capturer, recognizer Recognizer, recorder EventRecorder, opts Options) *Orchestrator {
	if opts.CaptureRetries < 0 {
		opts.CaptureRetries = 0
	} else if opts.CaptureRetries == 0 {
		opts.CaptureRetries = 2
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	return &Orchestrator{
		camera:         cam,
		recognizer:     recognizer,
		recorder:       recorder,
		captureRetries: opts.CaptureRetries,
		retryInterval:  opts.RetryInterval,
		state:          StateIdle,
	}
}

// State returns the current attempt state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe returns a channel receiving pipeline events. Slow subscribers
// miss events instead of blocking the pipeline.
func (o *Orchestrator) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	o.mu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.mu.Unlock()
	return ch
}

func (o *Orchestrator) publish(state State, outcome *Outcome) {
	o.mu.Lock()
	o.state = state
	subs := make([]chan Event, len(o.subscribers))
	copy(subs, o.subscribers)
	o.mu.Unlock()

	ev := Event{State: state, Outcome: outcome, At: time.Now()}
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Attempt runs one capture-recognize-record cycle. Within the attempt,
// capture strictly precedes recognition which strictly precedes the cache
// write, enforced by sequential awaiting.
//
// The returned Outcome always describes the attempt; the error carries the
// underlying cause when Outcome.Failed().
func (o *Orchestrator) Attempt(ctx context.Context) (*Outcome, error) {
	o.publish(StateAwaitingCapture, nil)

	img, err := o.captureWithRetry(ctx)
	if err != nil {
		outcome := &Outcome{Reason: FailCaptureUnavailable}
		o.publish(StateFailed, outcome)
		return outcome, fmt.Errorf("capture unavailable: %w", err)
	}

	o.publish(StateAwaitingRecognition, nil)

	// Best effort audit thumbnail; recognition proceeds without it.
	displayImage, err := imaging.DisplayImage(img.Data)
	if err != nil {
		displayImage = ""
	}

	result, err := o.recognizer.Recognize(ctx, img.Data, displayImage)
	if err != nil {
		return o.failRecognition(err, displayImage, img.TakenAt)
	}

	outcome := &Outcome{
		Matched:   result.Matched,
		UserID:    result.UserID,
		UserName:  result.UserName,
		Distance:  result.Distance,
		Threshold: result.Threshold,
	}

	// Every attempt is logged, match or not.
	event := &cache.AttendanceEvent{
		UserID:       result.UserID,
		UserName:     result.UserName,
		Success:      result.Matched,
		Distance:     result.Distance,
		Timestamp:    img.TakenAt.UTC(),
		DisplayImage: displayImage,
	}
	if event.UserName == "" {
		event.UserName = "Unknown"
	}
	if err := o.recorder.RecordEvent(event); err != nil {
		outcome.Reason = FailPersistence
		o.publish(StateFailed, outcome)
		return outcome, fmt.Errorf("could not record attendance event: %w", err)
	}
	outcome.EventID = event.ID

	o.publish(StateCompleted, outcome)
	return outcome, nil
}

// failRecognition records the failed attempt so it stays auditable, then
// reports the classified failure. There is no silent fallback when the
// server is unreachable.
func (o *Orchestrator) failRecognition(cause error, displayImage string, takenAt time.Time) (*Outcome, error) {
	reason := FailProtocolError
	if errors.Is(cause, faceapi.ErrNetworkUnavailable) {
		reason = FailOfflineNoMatch
	}

	outcome := &Outcome{Reason: reason}

	// The event is stamped with the capture time, same as the success path.
	event := &cache.AttendanceEvent{
		UserName:     "Unknown",
		Success:      false,
		Timestamp:    takenAt.UTC(),
		DisplayImage: displayImage,
	}
	if err := o.recorder.RecordEvent(event); err != nil {
		outcome.Reason = FailPersistence
		o.publish(StateFailed, outcome)
		return outcome, fmt.Errorf("could not record failed attempt: %w", err)
	}
	outcome.EventID = event.ID

	o.publish(StateFailed, outcome)
	return outcome, fmt.Errorf("recognition failed: %w", cause)
}

// captureWithRetry retries only capture timeouts, a bounded number of times.
// Device errors are permanent; a busy device means another attempt is
// already in flight and retrying would just pile on.
func (o *Orchestrator) captureWithRetry(ctx context.Context) (*camera.Image, error) {
	var img *camera.Image
	operation := func() error {
		var err error
		img, err = o.camera.Capture(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, camera.ErrCaptureTimeout) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.retryInterval), uint64(o.captureRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return img, nil
}
