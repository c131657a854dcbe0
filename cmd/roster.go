package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show the user roster",
	Long: `Show the user roster. By default the locally cached copy is printed;
--refresh fetches the roster from the server and updates the cache.

Examples:
  face-kiosk roster
  face-kiosk roster --refresh
  face-kiosk roster --json

  # Download a user's enrolled reference image
  face-kiosk roster --image 5f2c... --out alice.jpg`,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)

	rosterCmd.Flags().Bool("refresh", false, "Fetch the roster from the server first")
	rosterCmd.Flags().Bool("json", false, "Output as JSON")
	rosterCmd.Flags().String("image", "", "Download the enrolled image for a user id")
	rosterCmd.Flags().String("out", "", "Output file for --image (default <user-id>.jpg)")
}

func runRoster(cmd *cobra.Command, args []string) error {
	refresh := mustGetBool(cmd, "refresh")
	jsonOutput := mustGetBool(cmd, "json")
	imageUser := mustGetString(cmd, "image")

	cfg := config.Load()

	if imageUser != "" {
		return downloadUserImage(cfg, imageUser, mustGetString(cmd, "out"))
	}

	store, err := openCache(cfg)
	if err != nil {
		return err
	}

	if refresh {
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		users, err := client.FetchRoster(ctx)
		if err != nil {
			return fmt.Errorf("could not fetch roster: %w", err)
		}
		if err := store.CacheRoster(users); err != nil {
			return err
		}
	}

	users, err := store.Roster()
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(map[string]any{"users": users, "count": len(users)})
	}

	if len(users) == 0 {
		fmt.Println("No cached users. Run with --refresh to fetch from the server.")
		return nil
	}

	for _, u := range users {
		status := "active"
		if !u.Active {
			status = "inactive"
		}
		fmt.Printf("%-36s  %-20s  %-12s  %s\n", u.ID, u.Name, u.Position, status)
	}
	fmt.Printf("\n%d users\n", len(users))
	return nil
}

// downloadUserImage fetches a user's enrolled reference image and writes it
// as a JPEG file.
func downloadUserImage(cfg *config.Config, userID, out string) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	encoded, err := client.UserImage(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not fetch user image: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("could not decode user image: %w", err)
	}

	if out == "" {
		out = userID + ".jpg"
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("could not write %s: %w", out, err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", out, len(data))
	return nil
}
