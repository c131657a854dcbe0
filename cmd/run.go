package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/pipeline"
	"github.com/kozaktomas/face-kiosk/internal/syncer"
	"github.com/kozaktomas/face-kiosk/internal/web"
	"github.com/kozaktomas/face-kiosk/internal/wifi"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kiosk",
	Long: `Run the kiosk: start the camera, the background sync loop and the
local web API used by the on-device display.

Recognition attempts are triggered through POST /api/v1/recognize; cached
events are flushed to the server periodically and on demand.`,
	RunE: runKiosk,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("port", 0, "Port to listen on (overrides KIOSK_WEB_PORT)")
	runCmd.Flags().String("host", "", "Host to bind to (overrides KIOSK_WEB_HOST)")
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	device := camera.NewExecDevice(cfg.Camera.Command, cfg.Camera.VideoDevice)
	controller := camera.NewController(device, camera.Options{
		PollAttempts:   cfg.Camera.PollAttempts,
		PollInterval:   cfg.Camera.PollInterval,
		CaptureTimeout: cfg.Camera.CaptureTimeout,
	})
	// A missing camera must not keep the kiosk down: the web API and the
	// sync loop still work, and the operator sees the state on /status.
	if err := controller.Start(); err != nil {
		log.Printf("camera unavailable: %v", err)
	}
	defer controller.Stop()

	orchestrator := pipeline.New(controller, client, store, pipeline.Options{})
	go logPipelineEvents(orchestrator.Subscribe())

	coordinator := syncer.New(store, client)
	if err := coordinator.Run(cfg.Sync.Interval); err != nil {
		return err
	}
	defer coordinator.Stop()

	server := web.NewServer(cfg.Web.Host, cfg.Web.Port, &web.Handlers{
		DeviceID: cfg.Device.ID,
		Camera:   controller,
		Pipeline: orchestrator,
		Syncer:   coordinator,
		Store:    store,
		Server:   client,
		Wifi:     wifi.NewProvider(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Kiosk %s talking to %s\n", cfg.Device.ID, cfg.Server.URL)
	fmt.Printf("Local API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// logPipelineEvents mirrors attempt outcomes into the kiosk log.
func logPipelineEvents(events <-chan pipeline.Event) {
	for ev := range events {
		switch ev.State {
		case pipeline.StateCompleted:
			if ev.Outcome.Matched {
				log.Printf("recognized %s (%s), distance %.3f", ev.Outcome.UserName, ev.Outcome.UserID, ev.Outcome.Distance)
			} else {
				log.Printf("no match, distance %.3f over threshold %.3f", ev.Outcome.Distance, ev.Outcome.Threshold)
			}
		case pipeline.StateFailed:
			log.Printf("attempt failed: %s", ev.Outcome.Reason)
		}
	}
}
