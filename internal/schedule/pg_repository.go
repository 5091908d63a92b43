package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanTrainer(row pgx.Row) (*Trainer, error) {
	var t Trainer

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.HourlyRate,
		&t.Currency,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanTrainee(row pgx.Row) (*Trainee, error) {
	var t Trainee

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTraineeNotFound
		}
		return nil, err
	}

	return &t, nil
}

func scanAvailability(row pgx.Row) (*WeeklyAvailability, error) {
	var w WeeklyAvailability
	var startStr, endStr string

	err := row.Scan(
		&w.ID,
		&w.TrainerID,
		&w.DayOfWeek,
		&startStr,
		&endStr,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if w.StartTime, err = ParseTimeOfDay(startStr); err != nil {
		return nil, fmt.Errorf("availability %s start_time: %w", w.ID, err)
	}
	if w.EndTime, err = ParseTimeOfDay(endStr); err != nil {
		return nil, fmt.Errorf("availability %s end_time: %w", w.ID, err)
	}

	return &w, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var location, notes *string

	err := row.Scan(
		&s.ID,
		&s.TrainerID,
		&s.TraineeID,
		&s.ScheduledAt,
		&s.DurationMinutes,
		&s.Status,
		&s.Price,
		&s.Currency,
		&s.Paid,
		&location,
		&s.IsOnline,
		&notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	s.Location = location
	s.Notes = notes
	return &s, nil
}

func scanTimeOff(row pgx.Row) (*TimeOff, error) {
	var t TimeOff
	var reason *string

	err := row.Scan(
		&t.ID,
		&t.TrainerID,
		&t.StartDate,
		&t.EndDate,
		&reason,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimeOffNotFound
		}
		return nil, err
	}

	t.Reason = reason
	return &t, nil
}

const sessionColumns = `id, trainer_id, trainee_id, scheduled_at, duration_minutes, status,
		price, currency, paid, location, is_online, notes, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetTrainerByID(ctx context.Context, id uuid.UUID) (*Trainer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, hourly_rate, currency, created_at, updated_at
		FROM trainers
		WHERE id = $1
	`, id)
	return scanTrainer(row)
}

func (r *PgRepository) GetTrainerByUserID(ctx context.Context, userID uuid.UUID) (*Trainer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, hourly_rate, currency, created_at, updated_at
		FROM trainers
		WHERE user_id = $1
	`, userID)
	return scanTrainer(row)
}

func (r *PgRepository) GetTraineeByID(ctx context.Context, id uuid.UUID) (*Trainee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, created_at, updated_at
		FROM trainees
		WHERE id = $1
	`, id)
	return scanTrainee(row)
}

func (r *PgRepository) GetTraineeByUserID(ctx context.Context, userID uuid.UUID) (*Trainee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, created_at, updated_at
		FROM trainees
		WHERE user_id = $1
	`, userID)
	return scanTrainee(row)
}

func (r *PgRepository) ListAvailability(ctx context.Context, trainerID uuid.UUID) ([]WeeklyAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM trainer_availability
		WHERE trainer_id = $1
		ORDER BY day_of_week, start_time
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailability(rows)
}

func (r *PgRepository) ListAvailabilityForDay(ctx context.Context, trainerID uuid.UUID, dayOfWeek int) ([]WeeklyAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trainer_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM trainer_availability
		WHERE trainer_id = $1
		  AND day_of_week = $2
		ORDER BY start_time
	`, trainerID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailability(rows)
}

func collectAvailability(rows pgx.Rows) ([]WeeklyAvailability, error) {
	var result []WeeklyAvailability
	for rows.Next() {
		w, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ReplaceAvailability swaps the trainer's entire schedule inside one
// transaction so concurrent slot reads never observe the deleted-but-not-yet-
// reinserted state.
func (r *PgRepository) ReplaceAvailability(ctx context.Context, trainerID uuid.UUID, windows []WeeklyAvailability) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM trainer_availability
		WHERE trainer_id = $1
	`, trainerID); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}

	for _, w := range windows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO trainer_availability (id, trainer_id, day_of_week, start_time, end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, w.ID, trainerID, w.DayOfWeek, w.StartTime.String(), w.EndTime.String()); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}

	return nil
}

func (r *PgRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id)
	return scanSession(row)
}

func (r *PgRepository) ListBlockingSessions(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE trainer_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		  AND status <> 'CANCELLED'
		ORDER BY scheduled_at
	`, trainerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *PgRepository) ListSessionsForTrainer(ctx context.Context, trainerID uuid.UUID) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE trainer_id = $1
		ORDER BY scheduled_at DESC
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *PgRepository) ListSessionsForTrainee(ctx context.Context, traineeID uuid.UUID) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE trainee_id = $1
		ORDER BY scheduled_at DESC
	`, traineeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]Session, error) {
	var result []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateSession(ctx context.Context, s *Session) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, trainer_id, trainee_id, scheduled_at, duration_minutes, status,
			price, currency, paid, location, is_online, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING `+sessionColumns+`
	`, s.ID, s.TrainerID, s.TraineeID, s.ScheduledAt, s.DurationMinutes, s.Status,
		s.Price, s.Currency, s.Paid, s.Location, s.IsOnline, s.Notes)

	return scanSession(row)
}

func (r *PgRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, from, to SessionStatus) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sessions
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+sessionColumns+`
	`, id, to, from)

	return scanSession(row)
}

func (r *PgRepository) FindFinishedConfirmed(ctx context.Context, now time.Time) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE status = 'CONFIRMED'
		  AND scheduled_at + make_interval(mins => duration_minutes) < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSessions(rows)
}

func (r *PgRepository) ListTimeOff(ctx context.Context, trainerID uuid.UUID) ([]TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trainer_id, start_date, end_date, reason, created_at, updated_at
		FROM trainer_time_off
		WHERE trainer_id = $1
		ORDER BY start_date
	`, trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeOff(rows)
}

func (r *PgRepository) ListTimeOffOverlapping(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, trainer_id, start_date, end_date, reason, created_at, updated_at
		FROM trainer_time_off
		WHERE trainer_id = $1
		  AND start_date <= $3
		  AND end_date >= $2
		ORDER BY start_date
	`, trainerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeOff(rows)
}

func collectTimeOff(rows pgx.Rows) ([]TimeOff, error) {
	var result []TimeOff
	for rows.Next() {
		t, err := scanTimeOff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetTimeOffByID(ctx context.Context, id uuid.UUID) (*TimeOff, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, trainer_id, start_date, end_date, reason, created_at, updated_at
		FROM trainer_time_off
		WHERE id = $1
	`, id)
	return scanTimeOff(row)
}

func (r *PgRepository) AddTimeOff(ctx context.Context, t *TimeOff) (*TimeOff, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trainer_time_off (id, trainer_id, start_date, end_date, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, trainer_id, start_date, end_date, reason, created_at, updated_at
	`, t.ID, t.TrainerID, t.StartDate, t.EndDate, t.Reason)

	return scanTimeOff(row)
}

func (r *PgRepository) DeleteTimeOff(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM trainer_time_off
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTimeOffNotFound
	}

	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev SessionEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_events (event_type, session_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.SessionID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
