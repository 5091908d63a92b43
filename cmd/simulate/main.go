package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fightcamp/trainer-booking/internal/config"
	"github.com/fightcamp/trainer-booking/internal/db"
)

// The simulator hammers the booking flow: many trainees race for the same
// trainers' slots on the same day, which is exactly the race the per-slot
// lock exists to close. Conflicts are the expected outcome, errors are not.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	TrainerLimit int
	TraineeLimit int
	PostgresDSN  string
}

type trainee struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

type DataPool struct {
	Trainers []uuid.UUID
	Trainees []trainee
}

type Metrics struct {
	SlotReads    int64
	Bookings     int64
	Conflicts    int64
	AuthFailures int64
	Errors       int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	pool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded: %d trainers, %d trainees", len(pool.Trainers), len(pool.Trainees))

	if len(pool.Trainers) == 0 || len(pool.Trainees) == 0 {
		log.Fatal("run cmd/seed first, the pool is empty")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var metrics Metrics

	runCtx, stopRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer stopRun()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			worker(runCtx, rand.New(rand.NewSource(seed)), client, cfg, pool, &metrics)
		}(time.Now().UnixNano() + int64(i))
	}
	wg.Wait()

	log.Printf("report: slot_reads=%d bookings=%d conflicts=%d auth_failures=%d errors=%d",
		atomic.LoadInt64(&metrics.SlotReads),
		atomic.LoadInt64(&metrics.Bookings),
		atomic.LoadInt64(&metrics.Conflicts),
		atomic.LoadInt64(&metrics.AuthFailures),
		atomic.LoadInt64(&metrics.Errors),
	)
}

func worker(ctx context.Context, rng *rand.Rand, client *http.Client, cfg SimConfig, pool *DataPool, m *Metrics) {
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	for ctx.Err() == nil {
		trainerID := pool.Trainers[rng.Intn(len(pool.Trainers))]
		tr := pool.Trainees[rng.Intn(len(pool.Trainees))]

		slots, err := fetchSlots(ctx, client, cfg.APIBaseURL, trainerID, date)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&m.Errors, 1)
			}
			continue
		}
		atomic.AddInt64(&m.SlotReads, 1)
		if len(slots) == 0 {
			continue
		}

		slot := slots[rng.Intn(len(slots))]
		status, err := bookSlot(ctx, client, cfg.APIBaseURL, trainerID, tr, slot)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&m.Errors, 1)
			}
			continue
		}

		switch status {
		case http.StatusCreated:
			atomic.AddInt64(&m.Bookings, 1)
		case http.StatusConflict:
			atomic.AddInt64(&m.Conflicts, 1)
		case http.StatusUnauthorized, http.StatusForbidden:
			atomic.AddInt64(&m.AuthFailures, 1)
		default:
			atomic.AddInt64(&m.Errors, 1)
		}
	}
}

func fetchSlots(ctx context.Context, client *http.Client, baseURL string, trainerID uuid.UUID, date string) ([]string, error) {
	url := fmt.Sprintf("%s/trainers/%s/slots?date=%s&duration=60", baseURL, trainerID, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("slots returned %d", resp.StatusCode)
	}

	var slots []string
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func bookSlot(ctx context.Context, client *http.Client, baseURL string, trainerID uuid.UUID, tr trainee, slot string) (int, error) {
	body, err := json.Marshal(map[string]any{
		"trainerId":   trainerID.String(),
		"traineeId":   tr.ID.String(),
		"scheduledAt": slot,
		"duration":    60,
		"price":       80.0,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", tr.UserID.String())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func loadDataPool(ctx context.Context, pgPool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	pool := &DataPool{}

	rows, err := pgPool.Query(ctx, `
		SELECT id FROM trainers
		ORDER BY created_at
		LIMIT $1
	`, cfg.TrainerLimit)
	if err != nil {
		return nil, fmt.Errorf("load trainers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		pool.Trainers = append(pool.Trainers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	traineeRows, err := pgPool.Query(ctx, `
		SELECT id, user_id FROM trainees
		ORDER BY created_at
		LIMIT $1
	`, cfg.TraineeLimit)
	if err != nil {
		return nil, fmt.Errorf("load trainees: %w", err)
	}
	defer traineeRows.Close()

	for traineeRows.Next() {
		var t trainee
		if err := traineeRows.Scan(&t.ID, &t.UserID); err != nil {
			return nil, err
		}
		pool.Trainees = append(pool.Trainees, t)
	}
	if err := traineeRows.Err(); err != nil {
		return nil, err
	}

	return pool, nil
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		TrainerLimit: getInt("SIM_TRAINER_LIMIT", 20),
		TraineeLimit: getInt("SIM_TRAINEE_LIMIT", 200),
		PostgresDSN:  baseCfg.PostgresDSN,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
