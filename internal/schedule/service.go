package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/fightcamp/trainer-booking/internal/redis"
)

const (
	EventSessionBooked    = "SESSION_BOOKED"
	EventSessionConfirmed = "SESSION_CONFIRMED"
	EventSessionCancelled = "SESSION_CANCELLED"
	EventSessionCompleted = "SESSION_COMPLETED"
)

// MaxSessionMinutes caps a single session at five hours.
const MaxSessionMinutes = 300

var (
	ErrPermissionDenied        = errors.New("caller does not own this profile")
	ErrSlotConflict            = errors.New("requested time conflicts with an existing session or time off")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	loc    *time.Location
}

// NewService builds the scheduling service. All calendar-day math happens in
// loc, the trainer-local zone for the whole deployment.
func NewService(repo Repository, locker redisclient.Locker, loc *time.Location) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		loc:    loc,
	}
}

// WindowInput is one desired weekly opening in a schedule save.
type WindowInput struct {
	DayOfWeek int
	StartTime TimeOfDay
	EndTime   TimeOfDay
}

// SetWeeklyAvailability replaces the trainer's entire recurring schedule with
// the supplied windows. An empty list makes the trainer fully unavailable.
// Sessions already booked outside the new schedule are not touched.
//
// Overlapping windows are accepted; they are redundant, not invalid.
func (s *Service) SetWeeklyAvailability(ctx context.Context, callerUserID, trainerID uuid.UUID, windows []WindowInput) error {
	trainer, err := s.repo.GetTrainerByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return err
		}
		return fmt.Errorf("load trainer: %w", err)
	}
	if trainer.UserID != callerUserID {
		return ErrPermissionDenied
	}

	rows := make([]WeeklyAvailability, 0, len(windows))
	for i, w := range windows {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return &ValidationError{
				Field:  fmt.Sprintf("windows[%d].dayOfWeek", i),
				Reason: "must be between 0 (Sunday) and 6 (Saturday)",
			}
		}
		if !w.StartTime.Before(w.EndTime) {
			return &ValidationError{
				Field:  fmt.Sprintf("windows[%d].startTime", i),
				Reason: "must be before endTime",
			}
		}
		rows = append(rows, WeeklyAvailability{
			ID:        uuid.New(),
			TrainerID: trainerID,
			DayOfWeek: w.DayOfWeek,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		})
	}

	if err := s.repo.ReplaceAvailability(ctx, trainerID, rows); err != nil {
		return fmt.Errorf("replace availability: %w", err)
	}

	return nil
}

// GetWeeklyAvailability lists the trainer's recurring schedule ordered by
// day of week, then start time.
func (s *Service) GetWeeklyAvailability(ctx context.Context, trainerID uuid.UUID) ([]WeeklyAvailability, error) {
	if _, err := s.repo.GetTrainerByID(ctx, trainerID); err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}

	windows, err := s.repo.ListAvailability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return windows, nil
}

// ParseDate parses a YYYY-MM-DD calendar date in the service zone.
func (s *Service) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, s.loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD calendar date"}
	}
	return t, nil
}

// AvailableSlots computes the conflict-free start times for a session of the
// given length on the given calendar day. An empty result is the ordinary
// outcome for a day with no matching windows or nothing left unconflicted,
// never an error.
func (s *Service) AvailableSlots(ctx context.Context, trainerID uuid.UUID, date time.Time, durationMinutes int) ([]time.Time, error) {
	if durationMinutes <= 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}

	if _, err := s.repo.GetTrainerByID(ctx, trainerID); err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}

	day := s.startOfDay(date)
	nextDay := day.AddDate(0, 0, 1)

	windows, err := s.repo.ListAvailabilityForDay(ctx, trainerID, int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	sessions, err := s.repo.ListBlockingSessions(ctx, trainerID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	timeOff, err := s.repo.ListTimeOffOverlapping(ctx, trainerID, day, nextDay)
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}

	busy := append(sessionIntervals(sessions), timeOffIntervals(timeOff)...)
	duration := time.Duration(durationMinutes) * time.Minute

	return SlotStarts(day, windows, duration, busy), nil
}

// BookSessionInput carries everything needed to create a PENDING session.
type BookSessionInput struct {
	TrainerID       uuid.UUID
	TraineeID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Price           float64
	Currency        string
	Location        *string
	IsOnline        bool
	Notes           *string
}

// BookSession creates a pending session after re-running the conflict check
// inside a per-trainer slot lock, so two callers racing for the same interval
// cannot both get a booking.
func (s *Service) BookSession(ctx context.Context, callerUserID uuid.UUID, in BookSessionInput) (*Session, error) {
	if in.DurationMinutes <= 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be a positive number of minutes"}
	}
	if in.DurationMinutes > MaxSessionMinutes {
		return nil, &ValidationError{Field: "duration", Reason: "session cannot exceed 5 hours"}
	}
	if !in.ScheduledAt.After(time.Now()) {
		return nil, &ValidationError{Field: "scheduledAt", Reason: "must be in the future"}
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	trainee, err := s.repo.GetTraineeByID(ctx, in.TraineeID)
	if err != nil {
		if errors.Is(err, ErrTraineeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainee: %w", err)
	}
	if trainee.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}

	if _, err := s.repo.GetTrainerByID(ctx, in.TrainerID); err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}

	var created *Session

	err = s.locker.WithSlotLock(ctx, in.TrainerID, in.ScheduledAt, func(lockCtx context.Context) error {
		// Inside the critical section re-check the interval against sessions
		// and time off before inserting.
		conflicted, err := s.hasConflict(lockCtx, in.TrainerID, in.ScheduledAt, in.DurationMinutes)
		if err != nil {
			return err
		}
		if conflicted {
			return ErrSlotConflict
		}

		sess := &Session{
			ID:              uuid.New(),
			TrainerID:       in.TrainerID,
			TraineeID:       in.TraineeID,
			ScheduledAt:     in.ScheduledAt,
			DurationMinutes: in.DurationMinutes,
			Status:          StatusPending,
			Price:           in.Price,
			Currency:        in.Currency,
			Paid:            false,
			Location:        in.Location,
			IsOnline:        in.IsOnline,
			Notes:           in.Notes,
		}

		created, err = s.repo.CreateSession(lockCtx, sess)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		s.logEvent(lockCtx, created.ID, EventSessionBooked, map[string]any{
			"trainer_id":   in.TrainerID.String(),
			"trainee_id":   in.TraineeID.String(),
			"scheduled_at": in.ScheduledAt,
			"duration":     in.DurationMinutes,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

func (s *Service) hasConflict(ctx context.Context, trainerID uuid.UUID, scheduledAt time.Time, durationMinutes int) (bool, error) {
	end := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)

	day := s.startOfDay(scheduledAt)
	sessions, err := s.repo.ListBlockingSessions(ctx, trainerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, fmt.Errorf("list sessions: %w", err)
	}

	timeOff, err := s.repo.ListTimeOffOverlapping(ctx, trainerID, scheduledAt, end)
	if err != nil {
		return false, fmt.Errorf("list time off: %w", err)
	}

	busy := append(sessionIntervals(sessions), timeOffIntervals(timeOff)...)
	return overlapsAny(scheduledAt, end, busy), nil
}

// ConfirmSession moves a pending session to confirmed. Trainer only.
func (s *Service) ConfirmSession(ctx context.Context, callerUserID, sessionID uuid.UUID) (*Session, error) {
	sess, trainer, err := s.loadSessionWithTrainer(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if trainer.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}
	if sess.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateSessionStatus(ctx, sess.ID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm session: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventSessionConfirmed, map[string]any{})

	return updated, nil
}

// CancelSession cancels a pending or confirmed session. Either party may
// cancel. A cancelled session stops blocking slots immediately.
func (s *Service) CancelSession(ctx context.Context, callerUserID, sessionID uuid.UUID) (*Session, error) {
	sess, trainer, err := s.loadSessionWithTrainer(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	trainee, err := s.repo.GetTraineeByID(ctx, sess.TraineeID)
	if err != nil {
		return nil, fmt.Errorf("load trainee: %w", err)
	}
	if trainer.UserID != callerUserID && trainee.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}

	if sess.Status != StatusPending && sess.Status != StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateSessionStatus(ctx, sess.ID, sess.Status, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel session: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventSessionCancelled, map[string]any{
		"from": string(sess.Status),
	})

	return updated, nil
}

// CompleteSession moves a confirmed session to completed. Trainer only.
func (s *Service) CompleteSession(ctx context.Context, callerUserID, sessionID uuid.UUID) (*Session, error) {
	sess, trainer, err := s.loadSessionWithTrainer(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if trainer.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}
	if sess.Status != StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateSessionStatus(ctx, sess.ID, StatusConfirmed, StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventSessionCompleted, map[string]any{})

	return updated, nil
}

// CompleteFinishedSessions is intended to be called by the worker
// periodically. It marks confirmed sessions whose interval has fully elapsed
// as completed.
func (s *Service) CompleteFinishedSessions(ctx context.Context) error {
	finished, err := s.repo.FindFinishedConfirmed(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("find finished confirmed sessions: %w", err)
	}

	for _, sess := range finished {
		_, err := s.repo.UpdateSessionStatus(ctx, sess.ID, StatusConfirmed, StatusCompleted)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("failed to complete session %s: %v", sess.ID, err)
			continue
		}
		s.logEvent(ctx, sess.ID, EventSessionCompleted, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

const (
	ViewTrainer = "trainer"
	ViewTrainee = "trainee"
)

// ListSessions returns the sessions the caller participates in. View narrows
// to the caller's trainer or trainee side; empty view returns both.
func (s *Service) ListSessions(ctx context.Context, callerUserID uuid.UUID, view string) ([]Session, error) {
	var result []Session

	if view == ViewTrainer || view == "" {
		trainer, err := s.repo.GetTrainerByUserID(ctx, callerUserID)
		switch {
		case err == nil:
			sessions, err := s.repo.ListSessionsForTrainer(ctx, trainer.ID)
			if err != nil {
				return nil, fmt.Errorf("list trainer sessions: %w", err)
			}
			result = append(result, sessions...)
		case errors.Is(err, ErrTrainerNotFound):
			// caller has no trainer profile, nothing to add
		default:
			return nil, fmt.Errorf("load trainer profile: %w", err)
		}
	}

	if view == ViewTrainee || view == "" {
		trainee, err := s.repo.GetTraineeByUserID(ctx, callerUserID)
		switch {
		case err == nil:
			sessions, err := s.repo.ListSessionsForTrainee(ctx, trainee.ID)
			if err != nil {
				return nil, fmt.Errorf("list trainee sessions: %w", err)
			}
			result = append(result, sessions...)
		case errors.Is(err, ErrTraineeNotFound):
		default:
			return nil, fmt.Errorf("load trainee profile: %w", err)
		}
	}

	return result, nil
}

// AddTimeOff records an unavailability range for the trainer. Owner only.
func (s *Service) AddTimeOff(ctx context.Context, callerUserID, trainerID uuid.UUID, start, end time.Time, reason *string) (*TimeOff, error) {
	if end.Before(start) {
		return nil, &ValidationError{Field: "endDate", Reason: "must not be before startDate"}
	}

	trainer, err := s.repo.GetTrainerByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}
	if trainer.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}

	created, err := s.repo.AddTimeOff(ctx, &TimeOff{
		ID:        uuid.New(),
		TrainerID: trainerID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
	})
	if err != nil {
		return nil, fmt.Errorf("add time off: %w", err)
	}

	return created, nil
}

// ListTimeOff lists the trainer's unavailability ranges. Owner only.
func (s *Service) ListTimeOff(ctx context.Context, callerUserID, trainerID uuid.UUID) ([]TimeOff, error) {
	trainer, err := s.repo.GetTrainerByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}
	if trainer.UserID != callerUserID {
		return nil, ErrPermissionDenied
	}

	timeOff, err := s.repo.ListTimeOff(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}
	return timeOff, nil
}

// RemoveTimeOff deletes one unavailability range. Owner only.
func (s *Service) RemoveTimeOff(ctx context.Context, callerUserID, trainerID, timeOffID uuid.UUID) error {
	trainer, err := s.repo.GetTrainerByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, ErrTrainerNotFound) {
			return err
		}
		return fmt.Errorf("load trainer: %w", err)
	}
	if trainer.UserID != callerUserID {
		return ErrPermissionDenied
	}

	timeOff, err := s.repo.GetTimeOffByID(ctx, timeOffID)
	if err != nil {
		if errors.Is(err, ErrTimeOffNotFound) {
			return err
		}
		return fmt.Errorf("load time off: %w", err)
	}
	if timeOff.TrainerID != trainerID {
		return ErrTimeOffNotFound
	}

	return s.repo.DeleteTimeOff(ctx, timeOffID)
}

func (s *Service) loadSessionWithTrainer(ctx context.Context, sessionID uuid.UUID) (*Session, *Trainer, error) {
	sess, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	trainer, err := s.repo.GetTrainerByID(ctx, sess.TrainerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load trainer: %w", err)
	}

	return sess, trainer, nil
}

func (s *Service) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *Service) logEvent(ctx context.Context, sessionID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	sessID := sessionID

	ev := SessionEvent{
		EventType: eventType,
		SessionID: &sessID,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert session event %s for session %s: %v", eventType, sessionID, err)
	}
}
