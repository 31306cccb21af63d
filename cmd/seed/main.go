package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/api"
	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/config"
	"github.com/hackgods/appointment-push-notifier/internal/db"
	"github.com/hackgods/appointment-push-notifier/internal/logging"
	"github.com/hackgods/appointment-push-notifier/internal/push"
)

var specialties = []string{
	"Physiotherapy",
	"Occupational therapy",
	"Speech therapy",
	"Psychology",
	"Neurology",
	"Pediatrics",
}

var statuses = []string{
	appointment.StatusPending,
	appointment.StatusConfirmed,
	appointment.StatusConfirmed,
	appointment.StatusCompleted,
	appointment.StatusInProgress,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, "seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	patients := getInt("SEED_PATIENTS", 50)
	perPatient := getInt("SEED_APPOINTMENTS_PER_PATIENT", 3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	loc, _ := time.LoadLocation(cfg.ReminderTimeZone)
	gofakeit.Seed(time.Now().UnixNano())

	ids, err := seedTokens(ctx, pool, patients)
	if err != nil {
		logger.Fatal("seed tokens", zap.Error(err))
	}
	logger.Info("device tokens seeded", zap.Int("count", len(ids)))

	n, err := seedAppointments(ctx, pool, ids, perPatient, time.Now().In(loc))
	if err != nil {
		logger.Fatal("seed appointments", zap.Error(err))
	}
	logger.Info("appointments seeded", zap.Int("count", n))

	if cfg.JWTSecret != "" {
		token, err := api.GenerateAdminToken(cfg.JWTSecret, "seed-admin", true, 24*time.Hour)
		if err != nil {
			logger.Fatal("generate admin token", zap.Error(err))
		}
		fmt.Printf("admin token (24h): %s\n", token)
	}
}

// seedTokens creates count patients. About a third of them end up without a
// deliverable token.
func seedTokens(ctx context.Context, pool *pgxpool.Pool, count int) ([]string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.NewString()
		ids = append(ids, id)

		var token string
		switch gofakeit.Number(0, 9) {
		case 0:
			continue
		case 1:
			token = ""
		case 2:
			token = push.InvalidTokenPrefix + gofakeit.LetterN(32)
		default:
			token = gofakeit.LetterN(64)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO user_tokens (user_id, token, updated_at)
			VALUES ($1, $2, now())
		`, id, token)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// seedAppointments spreads appointments over the next week, tomorrow included,
// so the reminder job has something to send.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patients []string, perPatient int, now time.Time) (int, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n := 0
	for _, patientID := range patients {
		for i := 0; i < perPatient; i++ {
			date := now.AddDate(0, 0, gofakeit.Number(1, 7)).Format("2006-01-02")
			at := fmt.Sprintf("%02d:%02d", gofakeit.Number(8, 17), gofakeit.RandomInt([]int{0, 15, 30, 45}))

			var doctor *string
			if gofakeit.Bool() {
				name := "Dr. " + gofakeit.LastName()
				doctor = &name
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_id, date, appointment_time, status, doctor, specialty_therapy)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, uuid.NewString(), patientID, date, at,
				gofakeit.RandomString(statuses), doctor, gofakeit.RandomString(specialties))
			if err != nil {
				return 0, err
			}
			n++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
