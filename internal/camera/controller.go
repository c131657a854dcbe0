package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options tune the controller. Zero values fall back to defaults.
type Options struct {
	PollAttempts   int           // readiness polls before giving up (default 3)
	PollInterval   time.Duration // spacing between readiness polls (default 1s)
	CaptureTimeout time.Duration // max wait for the device frame (default 5s)
}

// Controller owns the camera device handle exclusively and serializes
// captures: only one may be in flight at a time.
type Controller struct {
	dev            Device
	pollAttempts   int
	pollInterval   time.Duration
	captureTimeout time.Duration

	mu    sync.Mutex
	state State
}

var errNotReady = errors.New("device not ready for capture")

func NewController(dev Device, opts Options) *Controller {
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 3
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = 5 * time.Second
	}
	return &Controller{
		dev:            dev,
		pollAttempts:   opts.PollAttempts,
		pollInterval:   opts.PollInterval,
		captureTimeout: opts.CaptureTimeout,
		state:          StateIdle,
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	// Stop wins over a capture completing concurrently.
	if c.state != StateIdle {
		c.state = s
	}
	c.mu.Unlock()
}

// Start acquires the camera device. Calling Start while the controller is
// already running is a no-op.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady, StateImageAvailable, StateTimedOut:
		return nil
	case StateCapturing:
		return ErrDeviceBusy
	}

	c.state = StateStarting
	if err := c.dev.Open(); err != nil {
		c.state = StateErrored
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	c.state = StateReady
	return nil
}

// Stop releases the camera resources. Safe to call from any state.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return
	}
	_ = c.dev.Close()
	c.state = StateIdle
}

// Capture issues one asynchronous capture request and waits for the frame.
// If the device is still warming up, readiness is polled a bounded number of
// times before the request is given up as ErrCaptureTimeout. The controller
// never retries a capture on its own; retry policy belongs to the caller.
func (c *Controller) Capture(ctx context.Context) (*Image, error) {
	c.mu.Lock()
	switch c.state {
	case StateCapturing:
		c.mu.Unlock()
		return nil, ErrDeviceBusy
	case StateReady, StateImageAvailable, StateTimedOut:
		c.state = StateCapturing
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		return nil, ErrDeviceUnavailable
	}

	if err := c.waitReady(ctx); err != nil {
		c.setState(StateTimedOut)
		return nil, err
	}

	// The capture context bounds the device request itself: when the frame
	// wait gives up, cancellation kills whatever the device started instead
	// of leaving it running against the hardware.
	captureCtx, cancel := context.WithTimeout(ctx, c.captureTimeout)
	defer cancel()

	frames := c.dev.Trigger(captureCtx)

	select {
	case frame := <-frames:
		if frame.Err != nil {
			c.setState(StateErrored)
			return nil, fmt.Errorf("capture failed: %w", frame.Err)
		}
		c.setState(StateImageAvailable)
		return &Image{Data: frame.Data, Format: "jpeg", TakenAt: time.Now()}, nil
	case <-captureCtx.Done():
		c.setState(StateTimedOut)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrCaptureTimeout
	}
}

// waitReady polls the device readiness without busy-looping the caller.
// Exactly pollAttempts polls happen: the first is immediate, the remaining
// ones are spaced pollInterval apart. A device that never becomes ready
// surfaces as a capture timeout.
func (c *Controller) waitReady(ctx context.Context) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.pollAttempts-1)),
		ctx,
	)
	err := backoff.Retry(func() error {
		if c.dev.Ready() {
			return nil
		}
		return errNotReady
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: device never became ready", ErrCaptureTimeout)
	}
	return nil
}
