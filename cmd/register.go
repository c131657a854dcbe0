package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/imaging"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new user with the recognition server",
	Long: `Register a new user from a face image. The server extracts the face
embedding and stores the user; the kiosk only ships the image.

Examples:
  face-kiosk register --file alice.jpg --name "Alice Novak" --position manager`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("file", "", "Face image to register (required)")
	registerCmd.Flags().String("name", "", "Full name of the user (required)")
	registerCmd.Flags().String("position", "", "Position or role of the user")
}

func runRegister(cmd *cobra.Command, args []string) error {
	file := mustGetString(cmd, "file")
	name := mustGetString(cmd, "name")
	position := mustGetString(cmd, "position")

	if file == "" || name == "" {
		return errors.New("--file and --name are required")
	}

	data, err := os.ReadFile(file) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("could not read image file: %w", err)
	}
	// Normalize whatever the operator hands us into a JPEG the server expects.
	jpegData, err := imaging.ReencodeJPEG(data)
	if err != nil {
		return fmt.Errorf("could not process image: %w", err)
	}

	cfg := config.Load()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	result, err := client.Register(ctx, jpegData, name, position)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered %s as user %s\n", name, result.UserID)
	return nil
}
