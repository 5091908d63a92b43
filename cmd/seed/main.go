package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightcamp/trainer-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	trainerIDs, err := seedTrainers(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed trainers: %v", err)
	}
	if err := seedTrainees(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed trainees: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, trainerIDs); err != nil {
		log.Fatalf("seed availability: %v", err)
	}

	log.Println("seed complete")
}

func seedTrainers(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d trainers", count)

	currencies := []string{"USD", "EUR", "GBP", "THB", "AUD", "CAD"}

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		userID := uuid.New()
		name := gofakeit.Name()
		rate := gofakeit.Price(30, 150)
		currency := currencies[gofakeit.Number(0, len(currencies)-1)]

		_, err := pool.Exec(ctx, `
			INSERT INTO trainers (id, user_id, name, hourly_rate, currency, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, userID, name, rate, currency)
		if err != nil {
			return nil, fmt.Errorf("insert trainer %d: %w", i, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func seedTrainees(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d trainees", count)

	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO trainees (id, user_id, name, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), uuid.New(), gofakeit.Name())
		if err != nil {
			return fmt.Errorf("insert trainee %d: %w", i, err)
		}
	}

	return nil
}

// seedAvailability gives every trainer a plausible weekly schedule: a morning
// and an optional evening window on three to six days of the week.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, trainerIDs []uuid.UUID) error {
	log.Printf("seeding availability for %d trainers", len(trainerIDs))

	for _, trainerID := range trainerIDs {
		days := gofakeit.Number(3, 6)
		for day := 0; day <= days; day++ {
			startHour := gofakeit.Number(6, 10)
			endHour := startHour + gofakeit.Number(3, 6)

			if err := insertWindow(ctx, pool, trainerID, day, startHour, endHour); err != nil {
				return err
			}

			// Some trainers also run evening sessions.
			if gofakeit.Bool() {
				if err := insertWindow(ctx, pool, trainerID, day, 17, 21); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func insertWindow(ctx context.Context, pool *pgxpool.Pool, trainerID uuid.UUID, day, startHour, endHour int) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO trainer_availability (id, trainer_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, uuid.New(), trainerID, day,
		fmt.Sprintf("%02d:00:00", startHour),
		fmt.Sprintf("%02d:00:00", endHour))
	if err != nil {
		return fmt.Errorf("insert availability for trainer %s: %w", trainerID, err)
	}
	return nil
}
