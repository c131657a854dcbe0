package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local offline cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached data",
	Long: `Clear cached data. By default only events that already reached the
server are dropped; --all wipes the event log and the roster snapshot, for
re-provisioning a kiosk.

Examples:
  face-kiosk cache clear
  face-kiosk cache clear --all`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().Bool("all", false, "Also drop unsynced events and the cached roster")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	all := mustGetBool(cmd, "all")

	cfg := config.Load()
	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	if all {
		if pending := store.UnsyncedCount(); pending > 0 {
			fmt.Printf("Warning: dropping %d events that never reached the server\n", pending)
		}
		if err := store.ClearAll(); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	}

	if err := store.ClearSynced(); err != nil {
		return err
	}
	fmt.Printf("Synced events cleared, %d unsynced kept.\n", store.UnsyncedCount())
	return nil
}
