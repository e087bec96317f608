// ABOUTME: In-memory fake of the Calendar v3 REST surface used by the gateway tests
// ABOUTME: Supports list (timeMin, maxResults, pageToken), insert, get, update and delete
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeCalendar struct {
	t *testing.T

	mu       sync.Mutex
	events   map[string]*calendar.Event
	order    []string
	nextID   int
	requests int
	lastList map[string]string
}

func newFakeCalendar(t *testing.T) (*fakeCalendar, *calendar.Service) {
	t.Helper()
	fc := &fakeCalendar{t: t, events: make(map[string]*calendar.Event)}
	ts := httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(ts.Close)

	svc, err := NewCalendarService(context.Background(), ts.Client(), option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	return fc, svc
}

func (fc *fakeCalendar) seed(ev *calendar.Event) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if ev.Id == "" {
		fc.nextID++
		ev.Id = fmt.Sprintf("seed%d", fc.nextID)
	}
	if ev.Status == "" {
		ev.Status = "confirmed"
	}
	fc.events[ev.Id] = ev
	fc.order = append(fc.order, ev.Id)
}

func (fc *fakeCalendar) requestCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.requests
}

func (fc *fakeCalendar) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.requests++

	// /calendars/{calendarId}/events[/{eventId}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "calendars" || parts[2] != "events" {
		writeAPIError(w, http.StatusNotFound, "not found")
		return
	}

	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			fc.list(w, r)
		case http.MethodPost:
			fc.insert(w, r)
		default:
			writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	id := parts[3]
	ev, ok := fc.events[id]
	if !ok {
		writeAPIError(w, http.StatusNotFound, "Not Found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, ev)
	case http.MethodPut:
		var body calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		body.Id = id
		body.Status = "confirmed"
		fc.events[id] = &body
		writeJSON(w, &body)
	case http.MethodDelete:
		if ev.Status == "cancelled" {
			writeAPIError(w, http.StatusGone, "Resource has been deleted")
			return
		}
		ev.Status = "cancelled"
		w.WriteHeader(http.StatusNoContent)
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (fc *fakeCalendar) insert(w http.ResponseWriter, r *http.Request) {
	var body calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Id != "" {
		if _, exists := fc.events[body.Id]; exists {
			writeAPIError(w, http.StatusConflict, "The requested identifier already exists.")
			return
		}
	} else {
		fc.nextID++
		body.Id = fmt.Sprintf("evt%d", fc.nextID)
	}
	body.Status = "confirmed"
	body.HtmlLink = "https://calendar.example/event?eid=" + body.Id
	fc.events[body.Id] = &body
	fc.order = append(fc.order, body.Id)
	writeJSON(w, &body)
}

func (fc *fakeCalendar) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fc.lastList = map[string]string{
		"timeMin":      q.Get("timeMin"),
		"maxResults":   q.Get("maxResults"),
		"singleEvents": q.Get("singleEvents"),
		"orderBy":      q.Get("orderBy"),
	}

	var timeMin time.Time
	if v := q.Get("timeMin"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "bad timeMin")
			return
		}
		timeMin = parsed
	}

	var matched []*calendar.Event
	for _, id := range fc.order {
		ev := fc.events[id]
		if ev.Status == "cancelled" {
			continue
		}
		// Like the real service, timeMin filters on the end time.
		if !timeMin.IsZero() && !eventBound(ev.End).After(timeMin) {
			continue
		}
		matched = append(matched, ev)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return eventBound(matched[i].Start).Before(eventBound(matched[j].Start))
	})

	offset := 0
	if tok := q.Get("pageToken"); tok != "" {
		offset, _ = strconv.Atoi(tok)
	}
	size := len(matched)
	if v := q.Get("maxResults"); v != "" {
		size, _ = strconv.Atoi(v)
	}

	resp := &calendar.Events{Kind: "calendar#events"}
	if offset < len(matched) {
		end := offset + size
		if end > len(matched) {
			end = len(matched)
		}
		resp.Items = matched[offset:end]
		if end < len(matched) {
			resp.NextPageToken = strconv.Itoa(end)
		}
	}
	writeJSON(w, resp)
}

func eventBound(dt *calendar.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		ts, _ := time.Parse(time.RFC3339, dt.DateTime)
		return ts
	}
	day, _ := time.Parse("2006-01-02", dt.Date)
	return day
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}
