package api

import (
	"time"

	"github.com/fightcamp/trainer-booking/internal/schedule"
)

// JSON field names follow the mobile/web client convention (camelCase).

type WindowPayload struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type SetAvailabilityRequest struct {
	Windows []WindowPayload `json:"windows"`
}

type SetAvailabilityResponse struct {
	Success bool `json:"success"`
}

type BookSessionRequest struct {
	TrainerID   string  `json:"trainerId"`
	TraineeID   string  `json:"traineeId"`
	ScheduledAt string  `json:"scheduledAt"`
	Duration    int     `json:"duration"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	Location    *string `json:"location,omitempty"`
	IsOnline    bool    `json:"isOnline,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type SessionResponse struct {
	ID          string    `json:"id"`
	TrainerID   string    `json:"trainerId"`
	TraineeID   string    `json:"traineeId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	Paid        bool      `json:"paid"`
	Location    *string   `json:"location,omitempty"`
	IsOnline    bool      `json:"isOnline"`
	Notes       *string   `json:"notes,omitempty"`
}

func toSessionResponse(s *schedule.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID.String(),
		TrainerID:   s.TrainerID.String(),
		TraineeID:   s.TraineeID.String(),
		ScheduledAt: s.ScheduledAt,
		Duration:    s.DurationMinutes,
		Status:      string(s.Status),
		Price:       s.Price,
		Currency:    s.Currency,
		Paid:        s.Paid,
		Location:    s.Location,
		IsOnline:    s.IsOnline,
		Notes:       s.Notes,
	}
}

type AddTimeOffRequest struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Reason    *string `json:"reason,omitempty"`
}

type TimeOffResponse struct {
	ID        string    `json:"id"`
	TrainerID string    `json:"trainerId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    *string   `json:"reason,omitempty"`
}

func toTimeOffResponse(t *schedule.TimeOff) TimeOffResponse {
	return TimeOffResponse{
		ID:        t.ID.String(),
		TrainerID: t.TrainerID.String(),
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Reason:    t.Reason,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
