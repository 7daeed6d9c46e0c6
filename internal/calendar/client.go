package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// BusyInterval is a half-open busy range [Start, End) in a mentor's calendar.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventRequest describes a calendar event to create.
type EventRequest struct {
	CalendarID  string    `json:"-"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees"`
}

// EventResult is the collaborator's reply to a created event.
type EventResult struct {
	EventID      string `json:"id"`
	CalendarLink string `json:"html_link"`
	MeetLink     string `json:"meeting_link"`
}

// Client talks to the calendar collaborator over JSON/HTTP. Every call is
// time-bounded by the client timeout; callers treat failures as best-effort.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListBusy получает занятые интервалы календаря в диапазоне
func (c *Client) ListBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/busy?from=%s&to=%s",
		c.baseURL,
		url.PathEscape(calendarID),
		url.QueryEscape(from.Format(time.RFC3339)),
		url.QueryEscape(to.Format(time.RFC3339)),
	)

	var payload struct {
		Intervals []BusyInterval `json:"intervals"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("list busy: %w", err)
	}

	return payload.Intervals, nil
}

// CreateEvent создаёт событие в календаре ментора
func (c *Client) CreateEvent(ctx context.Context, req EventRequest) (*EventResult, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(req.CalendarID))

	var result EventResult
	if err := c.do(ctx, http.MethodPost, endpoint, req, &result); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	c.logger.Info("Calendar event created",
		zap.String("calendar_id", req.CalendarID),
		zap.String("event_id", result.EventID),
	)

	return &result, nil
}

// DeleteEvent удаляет событие календаря. An event that is already gone
// counts as deleted.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (bool, error) {
	if eventID == "" {
		return false, fmt.Errorf("delete event: empty event id")
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		c.baseURL, url.PathEscape(calendarID), url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Уже удалено вручную - считаем успехом
		c.logger.Info("Calendar event already gone",
			zap.String("event_id", eventID),
			zap.Int("status", resp.StatusCode),
		)
		return true, nil
	default:
		return false, fmt.Errorf("delete event: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
