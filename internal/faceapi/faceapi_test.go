package faceapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := New(serverURL, "kiosk-test", time.Second)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// refusedClient points at a closed port so every request fails at transport level.
func refusedClient(t *testing.T) *Client {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	return testClient(t, server.URL)
}

func TestRecognizeMatched(t *testing.T) {
	var gotReq recognizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"matched": true, "user_id": "u1", "name": "Alice", "distance": 0.3, "threshold": 0.5}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	result, err := c.Recognize(context.Background(), []byte("jpeg-bytes"), "display-b64")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if !result.Matched {
		t.Error("expected matched result")
	}
	if result.UserID != "u1" || result.UserName != "Alice" {
		t.Errorf("identity = %s/%s; want u1/Alice", result.UserID, result.UserName)
	}
	if result.Distance != 0.3 || result.Threshold != 0.5 {
		t.Errorf("scores = %v/%v; want 0.3/0.5", result.Distance, result.Threshold)
	}
	if gotReq.DeviceID != "kiosk-test" {
		t.Errorf("device_id = %q; want kiosk-test", gotReq.DeviceID)
	}
	if gotReq.ImageBase64 == "" {
		t.Error("image_base64 missing from request")
	}
	if gotReq.CapturedImage != "display-b64" {
		t.Errorf("captured_image = %q; want display-b64", gotReq.CapturedImage)
	}
}

func TestRecognizeNotMatched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"matched": false, "user_id": "", "name": "", "distance": 0.9, "threshold": 0.5}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	result, err := c.Recognize(context.Background(), []byte("jpeg"), "")

	// No match is a normal result, never an error.
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if result.Matched {
		t.Error("expected not-matched result")
	}
}

func TestRecognizeConnectionRefused(t *testing.T) {
	c := refusedClient(t)

	_, err := c.Recognize(context.Background(), []byte("jpeg"), "")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("error = %v; want ErrNetworkUnavailable", err)
	}
}

func TestRecognizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "embedding model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Recognize(context.Background(), []byte("jpeg"), "")
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("error = %v; want ErrProtocol", err)
	}
}

func TestRecognizeMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"matched": tru`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Recognize(context.Background(), []byte("jpeg"), "")
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("error = %v; want ErrProtocol", err)
	}
}

func TestRecognizeMatchedWithoutIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"matched": true, "user_id": "", "name": "", "distance": 0.1, "threshold": 0.5}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Recognize(context.Background(), []byte("jpeg"), "")
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("error = %v; want ErrProtocol for matched result without identity", err)
	}
}

func TestRecognizeEmptyImage(t *testing.T) {
	c := testClient(t, "http://localhost:1")
	if _, err := c.Recognize(context.Background(), nil, ""); err == nil {
		t.Error("expected error for empty image data")
	}
}

func TestRegisterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			http.NotFound(w, r)
			return
		}
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"user_id": "u42"}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	result, err := c.Register(context.Background(), []byte("jpeg"), "Bob", "engineer")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.UserID != "u42" {
		t.Errorf("user id = %q; want u42", result.UserID)
	}
}

func TestRegisterMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.Register(context.Background(), []byte("jpeg"), "Bob", "")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v; want ErrInvalidResponse", err)
	}
}

func TestRegisterConnectionRefused(t *testing.T) {
	c := refusedClient(t)

	_, err := c.Register(context.Background(), []byte("jpeg"), "Bob", "")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("error = %v; want ErrNetworkUnavailable", err)
	}
}

func TestFetchRoster(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"users": [
			{"id": "u1", "name": "Alice", "position": "manager", "active": true, "model": "buffalo_l", "created_at": "2026-01-15T08:00:00Z"},
			{"id": "u2", "name": "Bob", "position": "engineer", "active": false, "model": "buffalo_l", "created_at": "2026-02-01T08:00:00Z"}
		]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	users, err := c.FetchRoster(context.Background())
	if err != nil {
		t.Fatalf("FetchRoster failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users; want 2", len(users))
	}
	if users[0].ID != "u1" || users[0].Name != "Alice" || !users[0].Active {
		t.Errorf("unexpected first user: %+v", users[0])
	}
}

func TestFetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attendance" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req historyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Limit != 25 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"items": [
			{"id": 1, "ts": 1767139200, "device_id": "kiosk-01", "matched": true, "user_id": "u1", "name": "Alice", "distance": 0.31},
			{"id": 2, "ts": 1767142800, "device_id": "kiosk-01", "matched": false, "user_id": null, "name": null, "distance": null}
		], "count": 2}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	items, err := c.FetchHistory(context.Background(), 25)
	if err != nil {
		t.Fatalf("FetchHistory failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2", len(items))
	}
	if items[0].Name != "Alice" || !items[0].Matched {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	// Null user fields decode to zero values.
	if items[1].UserID != "" || items[1].Distance != nil {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestWorkHoursQueryParams(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"users": [{"user_id": "u1", "name": "Alice", "first_check_in": 1767139200, "last_check_out": 1767171600, "work_hours": 9.0, "check_ins": 4, "cross_day": false}]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	users, err := c.WorkHours(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("WorkHours failed: %v", err)
	}
	if gotQuery != "date=2026-08-29" {
		t.Errorf("query = %q; want date=2026-08-29", gotQuery)
	}
	if len(users) != 1 || users[0].WorkHours != 9.0 {
		t.Errorf("unexpected result: %+v", users)
	}

	if _, err := c.WorkHoursSummary(context.Background(), "2026-08-01", "2026-08-29"); err != nil {
		t.Fatalf("WorkHoursSummary failed: %v", err)
	}
	if gotQuery != "end_date=2026-08-29&start_date=2026-08-01" {
		t.Errorf("summary query = %q", gotQuery)
	}
}

func TestSyncEvent(t *testing.T) {
	var gotReq syncRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attendance/sync" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"accepted": true, "duplicate": false}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	err := c.SyncEvent(context.Background(), SyncEventRequest{
		EventID:   "ev-1",
		UserID:    "u1",
		UserName:  "Alice",
		Success:   true,
		Timestamp: 1767139200,
	})
	if err != nil {
		t.Fatalf("SyncEvent failed: %v", err)
	}
	if gotReq.EventID != "ev-1" || gotReq.DeviceID != "kiosk-test" {
		t.Errorf("unexpected sync request: %+v", gotReq)
	}
}

func TestSyncEventDuplicateIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"accepted": false, "duplicate": true}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if err := c.SyncEvent(context.Background(), SyncEventRequest{EventID: "ev-1"}); err != nil {
		t.Fatalf("duplicate acceptance must not be an error, got: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer healthy.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer garbage.Close()

	c := testClient(t, healthy.URL)

	if !c.HealthCheck(context.Background(), "") {
		t.Error("expected healthy probe against base URL")
	}
	if c.HealthCheck(context.Background(), garbage.URL) {
		t.Error("non-JSON body must not count as healthy")
	}

	down := refusedClient(t)
	if down.HealthCheck(context.Background(), "") {
		t.Error("refused connection must not count as healthy")
	}
}
