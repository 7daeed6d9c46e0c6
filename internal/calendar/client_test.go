package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestClient_ListBusy(t *testing.T) {
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/calendars/mentor@example.com/busy", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, from.Format(time.RFC3339), r.URL.Query().Get("from"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"intervals": []BusyInterval{
				{Start: from.Add(time.Hour), End: from.Add(2 * time.Hour)},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", 5*time.Second, zap.NewNop())

	intervals, err := client.ListBusy(context.Background(), "mentor@example.com", from, to)

	assert.NoError(t, err)
	assert.Len(t, intervals, 1)
	assert.Equal(t, from.Add(time.Hour), intervals[0].Start.UTC())
}

func TestClient_ListBusy_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())

	_, err := client.ListBusy(context.Background(), "mentor@example.com", time.Now(), time.Now().Add(time.Hour))

	assert.Error(t, err)
}

func TestClient_CreateEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/mentor@example.com/events", r.URL.Path)

		var req EventRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Mentorship Session", req.Summary)
		assert.Equal(t, []string{"user@example.com", "mentor@example.com"}, req.Attendees)

		json.NewEncoder(w).Encode(EventResult{
			EventID:      "ev-42",
			CalendarLink: "https://calendar/ev-42",
			MeetLink:     "https://meet/abc",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())

	start := time.Now().Add(24 * time.Hour)
	result, err := client.CreateEvent(context.Background(), EventRequest{
		CalendarID: "mentor@example.com",
		Summary:    "Mentorship Session",
		Start:      start,
		End:        start.Add(15 * time.Minute),
		Attendees:  []string{"user@example.com", "mentor@example.com"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "ev-42", result.EventID)
	assert.Equal(t, "https://meet/abc", result.MeetLink)
}

func TestClient_DeleteEvent(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		deleted bool
		wantErr bool
	}{
		{"deleted", http.StatusNoContent, true, false},
		{"already gone 404", http.StatusNotFound, true, false},
		{"already gone 410", http.StatusGone, true, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())

			deleted, err := client.DeleteEvent(context.Background(), "mentor@example.com", "ev-42")

			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.deleted, deleted)
		})
	}
}

func TestClient_DeleteEvent_EmptyID(t *testing.T) {
	client := NewClient("http://localhost", "", time.Second, zap.NewNop())

	_, err := client.DeleteEvent(context.Background(), "mentor@example.com", "")

	assert.Error(t, err)
}
