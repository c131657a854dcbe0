package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
	"github.com/kozaktomas/face-kiosk/internal/pipeline"
	"github.com/kozaktomas/face-kiosk/internal/syncer"
	"github.com/kozaktomas/face-kiosk/internal/wifi"
)

// Attempter triggers one recognition attempt.
type Attempter interface {
	Attempt(ctx context.Context) (*pipeline.Outcome, error)
}

// Flusher pushes cached events to the server.
type Flusher interface {
	Flush(ctx context.Context) (syncer.Report, error)
}

// EventSource is the slice of the offline cache the handlers read from.
type EventSource interface {
	Events() ([]cache.AttendanceEvent, error)
	ListUnsynced() ([]cache.AttendanceEvent, error)
	UnsyncedCount() int
	Roster() ([]faceapi.UserRecord, error)
}

// CameraStatus reports the capture controller state.
type CameraStatus interface {
	State() camera.State
}

// HealthProber probes the recognition server.
type HealthProber interface {
	HealthCheck(ctx context.Context, probeURL string) bool
}

// WifiStatus reports wireless connectivity, best effort.
type WifiStatus interface {
	Status(ctx context.Context) wifi.Status
}

// Handlers bundles the kiosk API endpoints and their dependencies.
type Handlers struct {
	DeviceID string
	Camera   CameraStatus
	Pipeline Attempter
	Syncer   Flusher
	Store    EventSource
	Server   HealthProber
	Wifi     WifiStatus
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusResponse struct {
	DeviceID       string      `json:"device_id"`
	CameraState    string      `json:"camera_state"`
	UnsyncedEvents int         `json:"unsynced_events"`
	ServerOnline   bool        `json:"server_online"`
	Wifi           wifi.Status `json:"wifi"`
}

// Status reports the kiosk's view of the world for the on-device display.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{
		DeviceID:       h.DeviceID,
		CameraState:    h.Camera.State().String(),
		UnsyncedEvents: h.Store.UnsyncedCount(),
		ServerOnline:   h.Server.HealthCheck(r.Context(), ""),
		Wifi:           h.Wifi.Status(r.Context()),
	})
}

// Roster lists the locally cached users.
func (h *Handlers) Roster(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.Roster()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not read cached roster")
		return
	}
	if users == nil {
		users = []faceapi.UserRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Events lists cached attendance events, optionally only the unsynced ones.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	var events []cache.AttendanceEvent
	var err error
	if r.URL.Query().Get("unsynced") == "true" {
		events, err = h.Store.ListUnsynced()
	} else {
		events, err = h.Store.Events()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not read cached events")
		return
	}
	if events == nil {
		events = []cache.AttendanceEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// Recognize triggers one capture-recognize-record cycle. The outcome body is
// returned even on failure so the display can show what went wrong.
func (h *Handlers) Recognize(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Pipeline.Attempt(r.Context())
	if err != nil && outcome == nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, outcomeStatus(outcome, err), outcome)
}

func outcomeStatus(outcome *pipeline.Outcome, err error) int {
	if !outcome.Failed() {
		return http.StatusOK
	}
	switch outcome.Reason {
	case pipeline.FailCaptureUnavailable:
		if errors.Is(err, camera.ErrDeviceBusy) {
			return http.StatusConflict
		}
		return http.StatusServiceUnavailable
	case pipeline.FailOfflineNoMatch, pipeline.FailProtocolError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Sync flushes the unsynced events immediately.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.Syncer.Flush(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}
