package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/fightcamp/trainer-booking/internal/schedule"
)

func TestWriteScheduleError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{&schedule.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD calendar date"}, http.StatusBadRequest, "invalid_argument"},
		{schedule.ErrPermissionDenied, http.StatusForbidden, "permission_denied"},
		{schedule.ErrTrainerNotFound, http.StatusNotFound, "trainer_not_found"},
		{schedule.ErrTraineeNotFound, http.StatusNotFound, "trainee_not_found"},
		{schedule.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{schedule.ErrTimeOffNotFound, http.StatusNotFound, "time_off_not_found"},
		{schedule.ErrSlotConflict, http.StatusConflict, "slot_conflict"},
		{schedule.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{schedule.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
		{errors.New("pg down"), http.StatusInternalServerError, "internal_error"},
		{fmt.Errorf("load trainer: %w", schedule.ErrTrainerNotFound), http.StatusNotFound, "trainer_not_found"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeScheduleError(rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.wantStatus)
		}

		var body ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: decode body: %v", tc.err, err)
		}
		if body.Error != tc.wantCode {
			t.Errorf("%v: code = %q, want %q", tc.err, body.Error, tc.wantCode)
		}
	}
}

func TestCallerID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	if _, ok := callerID(req); ok {
		t.Fatal("missing header must not authenticate")
	}

	req.Header.Set(userIDHeader, "not-a-uuid")
	if _, ok := callerID(req); ok {
		t.Fatal("malformed header must not authenticate")
	}

	want := uuid.New()
	req.Header.Set(userIDHeader, want.String())
	got, ok := callerID(req)
	if !ok || got != want {
		t.Fatalf("callerID = %v/%v, want %v/true", got, ok, want)
	}
}

func TestParsePositiveInt(t *testing.T) {
	if n, err := parsePositiveInt("90"); err != nil || n != 90 {
		t.Fatalf("parsePositiveInt(90) = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "-30", "abc", "3.5", ""} {
		if _, err := parsePositiveInt(bad); err == nil {
			t.Errorf("parsePositiveInt(%q): expected error", bad)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("request ID missing from context")
		}
	})

	rec := httptest.NewRecorder()
	RequestIDMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("response missing X-Request-ID header")
	}

	// A supplied ID is propagated, not replaced.
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	RequestIDMiddleware(next).ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("X-Request-ID = %q, want req-123", got)
	}
}
