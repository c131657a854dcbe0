package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Flush cached attendance events to the server",
	Long: `Flush unsynced attendance events from the local cache to the server.

Events are submitted oldest first. Individual failures are retried on the
next flush; the server deduplicates by event id, so repeating an interrupted
sync is safe.

Examples:
  face-kiosk sync
  face-kiosk sync --json`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

func runSync(cmd *cobra.Command, args []string) error {
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

	pending := store.UnsyncedCount()
	if pending == 0 {
		if jsonOutput {
			return outputJSON(syncer.Report{})
		}
		fmt.Println("Nothing to sync.")
		return nil
	}

	coordinator := syncer.New(store, client)

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(pending,
			progressbar.OptionSetDescription("Syncing events"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		coordinator.OnProgress = func(_ cache.AttendanceEvent, _ error) {
			bar.Add(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := coordinator.Flush(ctx)
	if bar != nil {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(report)
	}

	fmt.Println("\nSync complete!")
	fmt.Printf("  Attempted: %d\n", report.Attempted)
	fmt.Printf("  Succeeded: %d\n", report.Succeeded)
	if report.Failed > 0 {
		fmt.Printf("  Failed:    %d (will retry on next sync)\n", report.Failed)
	}
	return nil
}
