package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/pipeline"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run one recognition attempt",
	Long: `Capture an image from the camera, submit it to the recognition server
and record the attendance event in the local cache.

Examples:
  # Capture from the configured camera
  face-kiosk recognize

  # Recognize a stored image instead (no camera needed)
  face-kiosk recognize --file selfie.jpg

  # JSON output for scripting
  face-kiosk recognize --json`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("file", "", "Recognize an image file instead of capturing")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

// fileCapturer feeds a stored image through the pipeline in place of the camera.
type fileCapturer struct {
	data []byte
}

func (f *fileCapturer) Capture(context.Context) (*camera.Image, error) {
	return &camera.Image{Data: f.data, Format: "jpeg", TakenAt: time.Now()}, nil
}

func runRecognize(cmd *cobra.Command, args []string) error {
	file := mustGetString(cmd, "file")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	var capturer pipeline.Capturer
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // operator-supplied path
		if err != nil {
			return fmt.Errorf("could not read image file: %w", err)
		}
		capturer = &fileCapturer{data: data}
	} else {
		device := camera.NewExecDevice(cfg.Camera.Command, cfg.Camera.VideoDevice)
		controller := camera.NewController(device, camera.Options{
			PollAttempts:   cfg.Camera.PollAttempts,
			PollInterval:   cfg.Camera.PollInterval,
			CaptureTimeout: cfg.Camera.CaptureTimeout,
		})
		if err := controller.Start(); err != nil {
			return err
		}
		defer controller.Stop()
		capturer = controller
	}

	orchestrator := pipeline.New(capturer, client, store, pipeline.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout+cfg.Camera.CaptureTimeout+30*time.Second)
	defer cancel()

	outcome, err := orchestrator.Attempt(ctx)
	if err != nil {
		// The outcome still carries the classified failure; show it before
		// bubbling the error up for the exit code.
		if jsonOutput && outcome != nil {
			_ = outputJSON(outcome)
		}
		return err
	}

	if jsonOutput {
		return outputJSON(outcome)
	}

	if outcome.Matched {
		fmt.Printf("Matched %s (%s)\n", outcome.UserName, outcome.UserID)
		fmt.Printf("  Distance:  %.3f (threshold %.3f)\n", outcome.Distance, outcome.Threshold)
	} else {
		fmt.Println("No match")
		fmt.Printf("  Distance:  %.3f (threshold %.3f)\n", outcome.Distance, outcome.Threshold)
	}
	fmt.Printf("  Event:     %s\n", outcome.EventID)
	return nil
}
