package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig
	Device DeviceConfig
	Camera CameraConfig
	Cache  CacheConfig
	Sync   SyncConfig
	Web    WebConfig
}

type ServerConfig struct {
	URL     string        // base URL of the recognition server (e.g., http://localhost:8001)
	Timeout time.Duration // transport timeout for a single request (default 10s)
}

type DeviceConfig struct {
	ID string // kiosk station identifier, defaults to hostname
}

type CameraConfig struct {
	Command        string        // capture command (default fswebcam)
	VideoDevice    string        // e.g., /dev/video0
	CaptureTimeout time.Duration // max wait for the device to deliver a frame
	PollAttempts   int           // readiness polls before giving up (hardware warm-up)
	PollInterval   time.Duration // spacing between readiness polls
}

type CacheConfig struct {
	Dir       string // directory holding the JSON snapshot files
	MaxEvents int    // attendance log retention cap, oldest dropped first
}

type SyncConfig struct {
	Interval time.Duration // periodic flush interval for unsynced events
}

type WebConfig struct {
	Host string
	Port int
}

// settings mirrors the on-disk settings file the kiosk UI writes.
// Environment variables take precedence over file values.
type settings struct {
	ServerURL   string `yaml:"server_url"`
	DeviceID    string `yaml:"device_id"`
	VideoDevice string `yaml:"video_device"`
}

// envStr reads an environment variable, returning the default when unset or empty.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a time.Duration.
// Returns the default value if the env var is unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// loadSettings reads the optional settings file. A missing or unreadable file
// is not an error; the kiosk falls back to environment and defaults.
func loadSettings(path string) settings {
	var s settings
	data, err := os.ReadFile(path) //nolint:gosec // path comes from local configuration
	if err != nil {
		return s
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return settings{}
	}
	return s
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "face-kiosk")
	}
	return ".face-kiosk"
}

func Load() *Config {
	settingsPath := envStr("KIOSK_SETTINGS_FILE", filepath.Join(defaultDataDir(), "settings.yaml"))
	s := loadSettings(settingsPath)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "kiosk"
	}

	serverURL := s.ServerURL
	if serverURL == "" {
		serverURL = "http://localhost:8001"
	}
	deviceID := s.DeviceID
	if deviceID == "" {
		deviceID = hostname
	}
	videoDevice := s.VideoDevice
	if videoDevice == "" {
		videoDevice = "/dev/video0"
	}

	return &Config{
		Server: ServerConfig{
			URL:     envStr("KIOSK_SERVER_URL", serverURL),
			Timeout: envDuration("KIOSK_SERVER_TIMEOUT", 10*time.Second),
		},
		Device: DeviceConfig{
			ID: envStr("KIOSK_DEVICE_ID", deviceID),
		},
		Camera: CameraConfig{
			Command:        envStr("KIOSK_CAPTURE_COMMAND", "fswebcam"),
			VideoDevice:    envStr("KIOSK_VIDEO_DEVICE", videoDevice),
			CaptureTimeout: envDuration("KIOSK_CAPTURE_TIMEOUT", 5*time.Second),
			PollAttempts:   envInt("KIOSK_CAMERA_POLL_ATTEMPTS", 3),
			PollInterval:   envDuration("KIOSK_CAMERA_POLL_INTERVAL", time.Second),
		},
		Cache: CacheConfig{
			Dir:       envStr("KIOSK_CACHE_DIR", filepath.Join(defaultDataDir(), "cache")),
			MaxEvents: envInt("KIOSK_CACHE_MAX_EVENTS", 1000),
		},
		Sync: SyncConfig{
			Interval: envDuration("KIOSK_SYNC_INTERVAL", time.Minute),
		},
		Web: WebConfig{
			Host: envStr("KIOSK_WEB_HOST", "127.0.0.1"),
			Port: envInt("KIOSK_WEB_PORT", 8090),
		},
	}
}
