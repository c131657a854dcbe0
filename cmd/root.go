package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-kiosk",
	Short: "Attendance kiosk client for a face recognition server",
	Long: `Face Kiosk is the on-device client of a face recognition attendance
system. It captures images from a local camera, submits them to the
recognition server, and keeps attendance events in a local cache so the
kiosk keeps working through network outages.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
