package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-kiosk/internal/cache"
	"github.com/kozaktomas/face-kiosk/internal/camera"
	"github.com/kozaktomas/face-kiosk/internal/faceapi"
	"github.com/kozaktomas/face-kiosk/internal/pipeline"
	"github.com/kozaktomas/face-kiosk/internal/syncer"
	"github.com/kozaktomas/face-kiosk/internal/wifi"
)

type stubCamera struct{ state camera.State }

func (s stubCamera) State() camera.State { return s.state }

type stubAttempter struct {
	outcome *pipeline.Outcome
	err     error
}

func (s stubAttempter) Attempt(context.Context) (*pipeline.Outcome, error) {
	return s.outcome, s.err
}

type stubFlusher struct {
	report syncer.Report
	err    error
}

func (s stubFlusher) Flush(context.Context) (syncer.Report, error) {
	return s.report, s.err
}

type stubStore struct {
	events   []cache.AttendanceEvent
	unsynced []cache.AttendanceEvent
	users    []faceapi.UserRecord
}

func (s stubStore) Events() ([]cache.AttendanceEvent, error)       { return s.events, nil }
func (s stubStore) ListUnsynced() ([]cache.AttendanceEvent, error) { return s.unsynced, nil }
func (s stubStore) UnsyncedCount() int                             { return len(s.unsynced) }
func (s stubStore) Roster() ([]faceapi.UserRecord, error)          { return s.users, nil }

type stubProber struct{ online bool }

func (s stubProber) HealthCheck(context.Context, string) bool { return s.online }

type stubWifi struct{ status wifi.Status }

func (s stubWifi) Status(context.Context) wifi.Status { return s.status }

func testServer(h *Handlers) *Server {
	if h.Camera == nil {
		h.Camera = stubCamera{state: camera.StateReady}
	}
	if h.Store == nil {
		h.Store = stubStore{}
	}
	if h.Server == nil {
		h.Server = stubProber{}
	}
	if h.Wifi == nil {
		h.Wifi = stubWifi{}
	}
	return NewServer("127.0.0.1", 0, h)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("could not decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	s := testServer(&Handlers{})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v; want status ok", body)
	}
}

func TestStatusAggregates(t *testing.T) {
	s := testServer(&Handlers{
		DeviceID: "kiosk-7",
		Camera:   stubCamera{state: camera.StateReady},
		Store: stubStore{unsynced: []cache.AttendanceEvent{
			{ID: "ev-1"}, {ID: "ev-2"},
		}},
		Server: stubProber{online: true},
		Wifi:   stubWifi{status: wifi.Status{Connected: true, SSID: "office", Signal: 80, Known: true}},
	})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var body statusResponse
	decodeBody(t, rec, &body)
	if body.DeviceID != "kiosk-7" {
		t.Errorf("device_id = %q; want kiosk-7", body.DeviceID)
	}
	if body.CameraState != "ready" {
		t.Errorf("camera_state = %q; want ready", body.CameraState)
	}
	if body.UnsyncedEvents != 2 {
		t.Errorf("unsynced_events = %d; want 2", body.UnsyncedEvents)
	}
	if !body.ServerOnline {
		t.Error("server_online = false; want true")
	}
	if body.Wifi.SSID != "office" {
		t.Errorf("wifi = %+v; want office network", body.Wifi)
	}
}

func TestRosterEmptyIsAList(t *testing.T) {
	s := testServer(&Handlers{})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/roster")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var body struct {
		Users []faceapi.UserRecord `json:"users"`
	}
	decodeBody(t, rec, &body)
	if body.Users == nil {
		t.Error("users must be an empty list, not null")
	}
}

func TestEventsUnsyncedFilter(t *testing.T) {
	store := stubStore{
		events:   []cache.AttendanceEvent{{ID: "ev-1"}, {ID: "ev-2"}, {ID: "ev-3"}},
		unsynced: []cache.AttendanceEvent{{ID: "ev-3"}},
	}
	s := testServer(&Handlers{Store: store})

	tests := []struct {
		target string
		count  int
	}{
		{"/api/v1/events", 3},
		{"/api/v1/events?unsynced=true", 1},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, tc.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d; want 200", rec.Code)
			}
			var body struct {
				Count int `json:"count"`
			}
			decodeBody(t, rec, &body)
			if body.Count != tc.count {
				t.Errorf("count = %d; want %d", body.Count, tc.count)
			}
		})
	}
}

func TestRecognizeOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  *pipeline.Outcome
		err      error
		wantCode int
	}{
		{
			"matched",
			&pipeline.Outcome{Matched: true, UserID: "u1", UserName: "Alice"},
			nil,
			http.StatusOK,
		},
		{
			"no match is still ok",
			&pipeline.Outcome{Matched: false},
			nil,
			http.StatusOK,
		},
		{
			"camera down",
			&pipeline.Outcome{Reason: pipeline.FailCaptureUnavailable},
			fmt.Errorf("capture unavailable: %w", camera.ErrCaptureTimeout),
			http.StatusServiceUnavailable,
		},
		{
			"camera busy",
			&pipeline.Outcome{Reason: pipeline.FailCaptureUnavailable},
			fmt.Errorf("capture unavailable: %w", camera.ErrDeviceBusy),
			http.StatusConflict,
		},
		{
			"server offline",
			&pipeline.Outcome{Reason: pipeline.FailOfflineNoMatch},
			fmt.Errorf("recognition failed: %w", faceapi.ErrNetworkUnavailable),
			http.StatusBadGateway,
		},
		{
			"cache broken",
			&pipeline.Outcome{Reason: pipeline.FailPersistence},
			fmt.Errorf("could not record attendance event: %w", cache.ErrPersistence),
			http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testServer(&Handlers{Pipeline: stubAttempter{outcome: tc.outcome, err: tc.err}})

			rec := doRequest(t, s, http.MethodPost, "/api/v1/recognize")
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantCode)
			}

			var body pipeline.Outcome
			decodeBody(t, rec, &body)
			if body.Reason != tc.outcome.Reason {
				t.Errorf("fail_reason = %q; want %q", body.Reason, tc.outcome.Reason)
			}
		})
	}
}

func TestSyncReturnsReport(t *testing.T) {
	s := testServer(&Handlers{
		Syncer: stubFlusher{report: syncer.Report{Attempted: 3, Succeeded: 2, Failed: 1}},
	})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/sync")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var report syncer.Report
	decodeBody(t, rec, &report)
	if report.Attempted != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("report = %+v; want {3 2 1}", report)
	}
}
