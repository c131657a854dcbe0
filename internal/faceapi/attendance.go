package faceapi

import (
	"context"
	"fmt"
	"net/url"
)

// FetchHistory retrieves the server-authoritative attendance log, newest
// entries last, capped at limit.
func (c *Client) FetchHistory(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	resp, err := doPostJSON[historyResponse](ctx, c, "attendance", historyRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return resp.Items, nil
}

// WorkHours retrieves per-user work hours for one day. An empty date means
// today (server local time).
func (c *Client) WorkHours(ctx context.Context, date string) ([]WorkHoursRecord, error) {
	endpoint := "attendance/work-hours"
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}

	resp, err := doGetJSON[workHoursResponse](ctx, c, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch work hours: %w", err)
	}
	return resp.Users, nil
}

// WorkHoursSummary retrieves per-user, per-day work hours over a date range.
func (c *Client) WorkHoursSummary(ctx context.Context, startDate, endDate string) ([]WorkHoursRecord, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}

	endpoint := "attendance/work-hours/summary"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := doGetJSON[workHoursResponse](ctx, c, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch work hours summary: %w", err)
	}
	return resp.Users, nil
}

// SyncEvent re-submits a locally recorded attendance event. The server
// deduplicates by event id, so repeating a submission after an interrupted
// flush is safe; duplicate acceptance is success, not an error.
func (c *Client) SyncEvent(ctx context.Context, req SyncEventRequest) error {
	resp, err := doPostJSON[syncResponse](ctx, c, "attendance/sync", syncRequest{
		EventID:     req.EventID,
		DeviceID:    c.deviceID,
		UserID:      req.UserID,
		Name:        req.UserName,
		Matched:     req.Success,
		TS:          req.Timestamp,
		ImageBase64: req.DisplayImage,
		Distance:    req.Distance,
	})
	if err != nil {
		return fmt.Errorf("sync event %s: %w", req.EventID, err)
	}
	if !resp.Accepted && !resp.Duplicate {
		return fmt.Errorf("sync event %s: %w: rejected by server", req.EventID, ErrProtocol)
	}
	return nil
}

// SyncEventRequest is the client-side view of an attendance event queued for
// re-submission.
type SyncEventRequest struct {
	EventID      string
	UserID       string
	UserName     string
	Success      bool
	Timestamp    int64
	DisplayImage string
	Distance     float64
}
