package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTrainerNotFound = errors.New("trainer not found")
	ErrTraineeNotFound = errors.New("trainee not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrTimeOffNotFound = errors.New("time off not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error)
	GetTrainerByUserID(ctx context.Context, userID uuid.UUID) (*Trainer, error)
	GetTraineeByID(ctx context.Context, id uuid.UUID) (*Trainee, error)
	GetTraineeByUserID(ctx context.Context, userID uuid.UUID) (*Trainee, error)

	// Availability. ReplaceAvailability deletes the trainer's whole schedule
	// and inserts the new one in a single transaction.
	ListAvailability(ctx context.Context, trainerID uuid.UUID) ([]WeeklyAvailability, error)
	ListAvailabilityForDay(ctx context.Context, trainerID uuid.UUID, dayOfWeek int) ([]WeeklyAvailability, error)
	ReplaceAvailability(ctx context.Context, trainerID uuid.UUID, windows []WeeklyAvailability) error

	// Sessions. ListBlockingSessions excludes CANCELLED rows.
	GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListBlockingSessions(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]Session, error)
	ListSessionsForTrainer(ctx context.Context, trainerID uuid.UUID) ([]Session, error)
	ListSessionsForTrainee(ctx context.Context, traineeID uuid.UUID) ([]Session, error)
	CreateSession(ctx context.Context, s *Session) (*Session, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to SessionStatus) (*Session, error)

	// Session worker
	FindFinishedConfirmed(ctx context.Context, now time.Time) ([]Session, error)

	// Time off
	ListTimeOff(ctx context.Context, trainerID uuid.UUID) ([]TimeOff, error)
	ListTimeOffOverlapping(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]TimeOff, error)
	GetTimeOffByID(ctx context.Context, id uuid.UUID) (*TimeOff, error)
	AddTimeOff(ctx context.Context, t *TimeOff) (*TimeOff, error)
	DeleteTimeOff(ctx context.Context, id uuid.UUID) error

	// Event logging
	InsertEvent(ctx context.Context, ev SessionEvent) error
}
