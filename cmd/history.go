package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent attendance history from the server",
	Long: `Show recent attendance records as the server sees them, newest first.

Examples:
  face-kiosk history
  face-kiosk history --limit 20
  face-kiosk history --json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 100, "Maximum number of records")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	records, err := client.FetchHistory(ctx, limit)
	if err != nil {
		return fmt.Errorf("could not fetch history: %w", err)
	}

	if jsonOutput {
		return outputJSON(map[string]any{"items": records, "count": len(records)})
	}

	if len(records) == 0 {
		fmt.Println("No attendance records.")
		return nil
	}

	for _, rec := range records {
		ts := time.Unix(rec.TS, 0).Local().Format("2006-01-02 15:04:05")
		result := "match"
		if !rec.Matched {
			result = "no match"
		}
		name := rec.Name
		if name == "" {
			name = "Unknown"
		}
		fmt.Printf("%s  %-10s  %-20s  %s\n", ts, rec.DeviceID, name, result)
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}
