package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/config"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
)

// newClient builds the recognition server client from config.
func newClient(cfg *config.Config) (*faceapi.Client, error) {
	client, err := faceapi.New(cfg.Server.URL, cfg.Device.ID, cfg.Server.Timeout)
	if err != nil {
		return nil, fmt.Errorf("could not create server client: %w", err)
	}
	return client, nil
}

// openCache opens the local offline cache from config.
func openCache(cfg *config.Config) (*cache.Store, error) {
	store, err := cache.Open(cfg.Cache.Dir, cfg.Cache.MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("could not open offline cache: %w", err)
	}
	return store, nil
}

// outputJSON prints data as indented JSON to stdout.
func outputJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
