package camera

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDeviceUnavailable is returned when no camera device is present or
	// the controller has not been started.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrDeviceBusy is returned when a capture is already in flight.
	ErrDeviceBusy = errors.New("camera device busy")
	// ErrCaptureTimeout is returned when the device does not deliver a frame
	// in time. The caller decides whether to retry.
	ErrCaptureTimeout = errors.New("image capture timed out")
)

// Image is a single captured frame. It is owned by the pipeline invocation
// that produced it and discarded after submission or caching.
type Image struct {
	Data    []byte
	Format  string
	TakenAt time.Time
}

// Frame is delivered by a Device when an asynchronous capture completes.
type Frame struct {
	Data []byte
	Err  error
}

// Device is the camera capability the controller drives. Implementations
// deliver exactly one Frame on the channel returned by Trigger.
type Device interface {
	Open() error
	Close() error
	// Ready reports whether the device can accept a capture request.
	// Hardware needs warm-up time after Open, so the controller polls this.
	Ready() bool
	// Trigger starts one asynchronous capture. Cancelling ctx abandons the
	// capture and releases the underlying hardware request; a timed-out
	// capture must not leave anything running against the device.
	Trigger(ctx context.Context) <-chan Frame
}

// State of the capture controller. ImageAvailable, TimedOut and Errored are
// the outcomes of the most recent capture; a new capture may be issued from
// ImageAvailable or TimedOut without restarting the controller.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateReady
	StateCapturing
	StateImageAvailable
	StateTimedOut
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateCapturing:
		return "capturing"
	case StateImageAvailable:
		return "image_available"
	case StateTimedOut:
		return "timed_out"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}
