package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// ExecDevice captures frames by shelling out to an fswebcam-style command
// that writes a JPEG to stdout. This is how the kiosk hardware is driven on
// embedded Linux boards without a native camera stack.
type ExecDevice struct {
	command     string
	videoDevice string

	mu   sync.Mutex
	open bool
	path string // resolved command path
}

func NewExecDevice(command, videoDevice string) *ExecDevice {
	return &ExecDevice{command: command, videoDevice: videoDevice}
}

func (d *ExecDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}

	path, err := exec.LookPath(d.command)
	if err != nil {
		return fmt.Errorf("capture command %q not found: %w", d.command, err)
	}
	if _, err := os.Stat(d.videoDevice); err != nil {
		return fmt.Errorf("video device %s not present: %w", d.videoDevice, err)
	}

	d.path = path
	d.open = true
	return nil
}

func (d *ExecDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

func (d *ExecDevice) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Trigger runs the capture command asynchronously and delivers exactly one
// frame on the returned channel. Cancelling ctx kills the command, so a
// timed-out capture cannot leave a process holding the video device.
func (d *ExecDevice) Trigger(ctx context.Context) <-chan Frame {
	frames := make(chan Frame, 1)

	d.mu.Lock()
	path := d.path
	device := d.videoDevice
	open := d.open
	d.mu.Unlock()

	if !open {
		frames <- Frame{Err: ErrDeviceUnavailable}
		return frames
	}

	go func() {
		// "-" writes the JPEG to stdout instead of a file.
		cmd := exec.CommandContext(ctx, path, "-d", device, "--no-banner", "--jpeg", "80", "--save", "-") //nolint:gosec // command path resolved in Open
		out, err := cmd.Output()
		if err != nil {
			frames <- Frame{Err: fmt.Errorf("capture command failed: %w", err)}
			return
		}
		if len(out) == 0 {
			frames <- Frame{Err: fmt.Errorf("capture command produced no image data")}
			return
		}
		frames <- Frame{Data: out}
	}()

	return frames
}
