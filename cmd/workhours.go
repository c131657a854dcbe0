package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
)

var workhoursCmd = &cobra.Command{
	Use:   "workhours",
	Short: "Show work hours computed by the server",
	Long: `Show per-user work hours derived from attendance records. Without
flags today's hours are shown; --date selects another day and --summary
aggregates a date range.

Examples:
  face-kiosk workhours
  face-kiosk workhours --date 2026-08-29
  face-kiosk workhours --summary --start 2026-08-01 --end 2026-08-31`,
	RunE: runWorkhours,
}

func init() {
	rootCmd.AddCommand(workhoursCmd)

	workhoursCmd.Flags().String("date", "", "Day to report (YYYY-MM-DD, default today)")
	workhoursCmd.Flags().Bool("summary", false, "Aggregate over a date range")
	workhoursCmd.Flags().String("start", "", "Range start for --summary (YYYY-MM-DD)")
	workhoursCmd.Flags().String("end", "", "Range end for --summary (YYYY-MM-DD)")
	workhoursCmd.Flags().Bool("json", false, "Output as JSON")
}

func runWorkhours(cmd *cobra.Command, args []string) error {
	date := mustGetString(cmd, "date")
	summary := mustGetBool(cmd, "summary")
	start := mustGetString(cmd, "start")
	end := mustGetString(cmd, "end")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	var records []faceapi.WorkHoursRecord
	if summary {
		if start == "" || end == "" {
			return errors.New("--summary requires --start and --end")
		}
		records, err = client.WorkHoursSummary(ctx, start, end)
	} else {
		records, err = client.WorkHours(ctx, date)
	}
	if err != nil {
		return fmt.Errorf("could not fetch work hours: %w", err)
	}

	if jsonOutput {
		return outputJSON(map[string]any{"users": records, "count": len(records)})
	}

	if len(records) == 0 {
		fmt.Println("No work hour records.")
		return nil
	}

	for _, rec := range records {
		in := time.Unix(rec.FirstCheckIn, 0).Local().Format("15:04")
		out := time.Unix(rec.LastCheckOut, 0).Local().Format("15:04")
		line := fmt.Sprintf("%-20s  %s - %s  %5.2fh  (%d check-ins)", rec.Name, in, out, rec.WorkHours, rec.CheckIns)
		if rec.CrossDay {
			line += "  cross-day"
		}
		if rec.Date != "" {
			line = rec.Date + "  " + line
		}
		fmt.Println(line)
	}
	return nil
}
