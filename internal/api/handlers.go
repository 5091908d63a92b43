package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/fightcamp/trainer-booking/internal/redis"
	"github.com/fightcamp/trainer-booking/internal/schedule"
)

func getAvailabilityHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		windows, err := svc.GetWeeklyAvailability(r.Context(), trainerID)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		resp := make([]WindowPayload, 0, len(windows))
		for _, win := range windows {
			resp = append(resp, WindowPayload{
				DayOfWeek: win.DayOfWeek,
				StartTime: win.StartTime.String(),
				EndTime:   win.EndTime.String(),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func setAvailabilityHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		windows := make([]schedule.WindowInput, 0, len(req.Windows))
		for _, p := range req.Windows {
			start, err := schedule.ParseTimeOfDay(p.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
				return
			}
			end, err := schedule.ParseTimeOfDay(p.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_end_time", err.Error())
				return
			}
			windows = append(windows, schedule.WindowInput{
				DayOfWeek: p.DayOfWeek,
				StartTime: start,
				EndTime:   end,
			})
		}

		if err := svc.SetWeeklyAvailability(r.Context(), caller, trainerID, windows); err != nil {
			writeScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SetAvailabilityResponse{Success: true})
	}
}

func getSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		date, err := svc.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		duration := 60
		if raw := r.URL.Query().Get("duration"); raw != "" {
			d, err := parsePositiveInt(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be a positive integer of minutes")
				return
			}
			duration = d
		}

		slots, err := svc.AvailableSlots(r.Context(), trainerID, date, duration)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		// Always an array, never null: an empty day is a valid result.
		resp := make([]string, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, s.Format(time.RFC3339))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookSessionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		var req BookSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		trainerID, err := uuid.Parse(req.TrainerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerId must be a valid UUID")
			return
		}

		traineeID, err := uuid.Parse(req.TraineeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainee_id", "traineeId must be a valid UUID")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduledAt must be an RFC 3339 timestamp")
			return
		}

		sess, err := svc.BookSession(r.Context(), caller, schedule.BookSessionInput{
			TrainerID:       trainerID,
			TraineeID:       traineeID,
			ScheduledAt:     scheduledAt,
			DurationMinutes: req.Duration,
			Price:           req.Price,
			Currency:        req.Currency,
			Location:        req.Location,
			IsOnline:        req.IsOnline,
			Notes:           req.Notes,
		})
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSessionResponse(sess))
	}
}

func listSessionsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		view := r.URL.Query().Get("view")
		if view != "" && view != schedule.ViewTrainer && view != schedule.ViewTrainee {
			writeError(w, http.StatusBadRequest, "invalid_view", "view must be trainer or trainee")
			return
		}

		sessions, err := svc.ListSessions(r.Context(), caller, view)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		resp := make([]SessionResponse, 0, len(sessions))
		for i := range sessions {
			resp = append(resp, toSessionResponse(&sessions[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func sessionTransitionHandler(fn func(ctx context.Context, caller, sessionID uuid.UUID) (*schedule.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session_id", "sessionID must be a valid UUID")
			return
		}

		sess, err := fn(r.Context(), caller, sessionID)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toSessionResponse(sess))
	}
}

func listTimeOffHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		timeOff, err := svc.ListTimeOff(r.Context(), caller, trainerID)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		resp := make([]TimeOffResponse, 0, len(timeOff))
		for i := range timeOff {
			resp = append(resp, toTimeOffResponse(&timeOff[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func addTimeOffHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		var req AddTimeOffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date", "startDate must be an RFC 3339 timestamp")
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_date", "endDate must be an RFC 3339 timestamp")
			return
		}

		timeOff, err := svc.AddTimeOff(r.Context(), caller, trainerID, start, end, req.Reason)
		if err != nil {
			writeScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toTimeOffResponse(timeOff))
	}
}

func removeTimeOffHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+userIDHeader+" header")
			return
		}

		trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_trainer_id", "trainerID must be a valid UUID")
			return
		}

		timeOffID, err := uuid.Parse(chi.URLParam(r, "timeOffID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time_off_id", "timeOffID must be a valid UUID")
			return
		}

		if err := svc.RemoveTimeOff(r.Context(), caller, trainerID, timeOffID); err != nil {
			writeScheduleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeScheduleError(w http.ResponseWriter, err error) {
	var ve *schedule.ValidationError

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "invalid_argument", ve.Error())
	case errors.Is(err, schedule.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, schedule.ErrTrainerNotFound):
		writeError(w, http.StatusNotFound, "trainer_not_found", err.Error())
	case errors.Is(err, schedule.ErrTraineeNotFound):
		writeError(w, http.StatusNotFound, "trainee_not_found", err.Error())
	case errors.Is(err, schedule.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, schedule.ErrTimeOffNotFound):
		writeError(w, http.StatusNotFound, "time_off_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return n, nil
}
