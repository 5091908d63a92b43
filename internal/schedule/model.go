package schedule

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusPending   SessionStatus = "PENDING"
	StatusConfirmed SessionStatus = "CONFIRMED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
)

type Trainer struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	HourlyRate float64
	Currency   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Trainee struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyAvailability is one recurring weekly opening for a trainer.
// DayOfWeek uses 0=Sunday through 6=Saturday. The full set of a trainer's
// windows is replaced atomically on every save, never patched individually.
type WeeklyAvailability struct {
	ID        uuid.UUID
	TrainerID uuid.UUID
	DayOfWeek int
	StartTime TimeOfDay
	EndTime   TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	ID              uuid.UUID
	TrainerID       uuid.UUID
	TraineeID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Status          SessionStatus
	Price           float64
	Currency        string
	Paid            bool
	Location        *string
	IsOnline        bool
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// End is the exclusive end of the interval the session occupies.
func (s Session) End() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// TimeOff is a trainer-declared unavailability range. StartDate and EndDate
// are absolute timestamps forming an inclusive range.
type TimeOff struct {
	ID        uuid.UUID
	TrainerID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Reason    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionEvent struct {
	ID        int64
	EventType string
	SessionID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}
