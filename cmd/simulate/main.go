package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/changefeed"
	"github.com/hackgods/appointment-push-notifier/internal/config"
	"github.com/hackgods/appointment-push-notifier/internal/db"
	"github.com/hackgods/appointment-push-notifier/internal/logging"
)

type SimConfig struct {
	Duration time.Duration
	Workers  int
	Pause    time.Duration
	Limit    int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[len(latencies)*95/100]
	return avg, p50, p95
}

type operation struct {
	name string
	fn   func(ctx context.Context, rng *rand.Rand, id string) (appointment.Change, error)
}

type Simulator struct {
	config    SimConfig
	pool      *pgxpool.Pool
	repo      *appointment.PgRepository
	publisher *changefeed.KafkaPublisher
	logger    *zap.Logger

	mu  sync.RWMutex
	ids []string

	ops     []operation
	metrics map[string]*OperationMetrics
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, "simulate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	simCfg := SimConfig{
		Duration: getDuration("SIM_DURATION", 30*time.Second),
		Workers:  getInt("SIM_WORKERS", 4),
		Pause:    getDuration("SIM_PAUSE", 500*time.Millisecond),
		Limit:    getInt("SIM_APPOINTMENT_LIMIT", 500),
	}
	if simCfg.Workers <= 0 || simCfg.Duration <= 0 {
		logger.Fatal("SIM_WORKERS and SIM_DURATION must be > 0")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.ConnectPostgres(rootCtx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	sim := &Simulator{
		config:  simCfg,
		pool:    pool,
		repo:    appointment.NewPgRepository(pool),
		logger:  logger,
		metrics: map[string]*OperationMetrics{},
	}

	// With the Kafka feed nothing turns table writes into events, so the
	// simulator publishes them itself.
	if cfg.ChangeFeed == config.ChangeFeedKafka {
		sim.publisher = changefeed.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = sim.publisher.Close() }()
	}

	sim.ops = []operation{
		{name: "status", fn: sim.changeStatus},
		{name: "reschedule", fn: sim.reschedule},
		{name: "assign_doctor", fn: sim.assignDoctor},
		{name: "delete", fn: sim.remove},
	}
	for _, op := range sim.ops {
		sim.metrics[op.name] = &OperationMetrics{}
	}

	if err := sim.loadIDs(rootCtx); err != nil {
		logger.Fatal("load appointments", zap.Error(err))
	}
	logger.Info("simulation starting",
		zap.Int("appointments", len(sim.ids)),
		zap.Duration("duration", simCfg.Duration),
		zap.Int("workers", simCfg.Workers),
		zap.Bool("kafka", sim.publisher != nil),
	)

	sim.Run(rootCtx)
	sim.PrintReport()
}

func (s *Simulator) loadIDs(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT id FROM appointments LIMIT $1`, s.config.Limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.ids = append(s.ids, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(s.ids) == 0 {
		return errors.New("no appointments found, run cmd/seed first")
	}
	return nil
}

func (s *Simulator) randomID(rng *rand.Rand) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[rng.Intn(len(s.ids))], true
}

func (s *Simulator) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *Simulator) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.Pause):
		}

		id, ok := s.randomID(rng)
		if !ok {
			return
		}

		// deletes are rare so the pool does not drain
		op := s.ops[rng.Intn(len(s.ops)-1)]
		if rng.Intn(20) == 0 {
			op = s.ops[len(s.ops)-1]
		}

		start := time.Now()
		change, err := op.fn(ctx, rng, id)
		if err == nil && s.publisher != nil {
			err = s.publisher.Publish(ctx, change)
		}
		s.metrics[op.name].Record(time.Since(start), err == nil)

		if err != nil && ctx.Err() == nil {
			s.logger.Warn("operation failed", zap.String("op", op.name), zap.String("appointment_id", id), zap.Error(err))
		}
	}
}

func (s *Simulator) update(ctx context.Context, id, set string, args ...any) (appointment.Change, error) {
	before, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return appointment.Change{}, err
	}

	_, err = s.pool.Exec(ctx, `UPDATE appointments SET `+set+`, updated_at = now() WHERE id = $1`, append([]any{id}, args...)...)
	if err != nil {
		return appointment.Change{}, err
	}

	after, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return appointment.Change{}, err
	}
	return appointment.Change{ID: id, Before: before, After: after}, nil
}

func (s *Simulator) changeStatus(ctx context.Context, rng *rand.Rand, id string) (appointment.Change, error) {
	statuses := []string{
		appointment.StatusPending,
		appointment.StatusConfirmed,
		appointment.StatusCancelled,
		appointment.StatusCompleted,
		appointment.StatusInProgress,
	}
	return s.update(ctx, id, `status = $2`, statuses[rng.Intn(len(statuses))])
}

func (s *Simulator) reschedule(ctx context.Context, rng *rand.Rand, id string) (appointment.Change, error) {
	date := time.Now().AddDate(0, 0, 1+rng.Intn(7)).Format("2006-01-02")
	at := fmt.Sprintf("%02d:%02d", 8+rng.Intn(10), 15*rng.Intn(4))
	return s.update(ctx, id, `date = $2, appointment_time = $3`, date, at)
}

func (s *Simulator) assignDoctor(ctx context.Context, _ *rand.Rand, id string) (appointment.Change, error) {
	return s.update(ctx, id, `doctor = $2`, "Dr. "+gofakeit.LastName())
}

func (s *Simulator) remove(ctx context.Context, _ *rand.Rand, id string) (appointment.Change, error) {
	before, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return appointment.Change{}, err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return appointment.Change{}, err
	}
	s.forget(id)

	// keep the pool stable by booking a replacement
	replacement := *before
	replacement.ID = uuid.NewString()
	replacement.Status = appointment.StatusPending
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, date, appointment_time, status, doctor, specialty_therapy)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`, replacement.ID, replacement.PatientID, replacement.Date, replacement.AppointmentTime,
		replacement.Status, replacement.Doctor, replacement.SpecialtyTherapy); err != nil {
		return appointment.Change{}, err
	}
	s.mu.Lock()
	s.ids = append(s.ids, replacement.ID)
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, appointment.Change{ID: replacement.ID, After: &replacement}); err != nil {
			return appointment.Change{}, err
		}
	}
	return appointment.Change{ID: id, Before: before}, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n\n", s.config.Workers)

	for _, op := range s.ops {
		om := s.metrics[op.name]
		total := atomic.LoadInt64(&om.Total)
		if total == 0 {
			continue
		}
		avg, p50, p95 := om.Stats()
		fmt.Printf("%s:\n", op.name)
		fmt.Printf("  Total: %d  Success: %d  Errors: %d\n", total, atomic.LoadInt64(&om.Success), atomic.LoadInt64(&om.Error))
		fmt.Printf("  Latency: avg=%s p50=%s p95=%s\n\n",
			avg.Round(time.Millisecond), p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	}
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
