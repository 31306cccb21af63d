package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
)

const reminderDateLayout = "2006-01-02"

// Claimer grants a key to exactly one caller until it expires.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type ReminderConfig struct {
	Location *time.Location
	ClaimTTL time.Duration
	Now      func() time.Time
}

// ReminderJob sends the day-before reminder for every confirmed appointment.
type ReminderJob struct {
	repo     appointment.Repository
	notifier *Notifier
	claimer  Claimer
	loc      *time.Location
	claimTTL time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewReminderJob builds the job. claimer may be nil, in which case every Run
// proceeds unconditionally.
func NewReminderJob(repo appointment.Repository, notifier *Notifier, claimer Claimer, cfg ReminderConfig, logger *zap.Logger) *ReminderJob {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 20 * time.Hour
	}
	return &ReminderJob{
		repo:     repo,
		notifier: notifier,
		claimer:  claimer,
		loc:      cfg.Location,
		claimTTL: cfg.ClaimTTL,
		now:      cfg.Now,
		logger:   logger.Named("reminder-job"),
	}
}

// Tomorrow is the calendar date one day after now, in the job's time zone.
func (j *ReminderJob) Tomorrow() string {
	return j.now().In(j.loc).AddDate(0, 0, 1).Format(reminderDateLayout)
}

// Run dispatches all reminders for tomorrow concurrently and waits for every
// one of them. It returns how many were attempted.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	date := j.Tomorrow()
	log := j.logger.With(zap.String("date", date))

	claimKey := "reminders:" + date
	var claimToken string
	if j.claimer != nil {
		token, ok, err := j.claimer.Claim(ctx, claimKey, j.claimTTL)
		switch {
		case err != nil:
			log.Warn("reminder claim unavailable, running anyway", zap.Error(err))
		case !ok:
			log.Info("reminders already claimed for date, skipping")
			reminderRunsTotal.WithLabelValues("skipped").Inc()
			return 0, nil
		default:
			claimToken = token
		}
	}

	records, err := j.repo.FindByDateAndStatus(ctx, date, appointment.StatusConfirmed)
	if err != nil {
		if claimToken != "" {
			if relErr := j.claimer.Release(ctx, claimKey, claimToken); relErr != nil {
				log.Warn("release reminder claim failed", zap.Error(relErr))
			}
		}
		reminderRunsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("find confirmed appointments: %w", err)
	}

	var wg sync.WaitGroup
	for _, rec := range records {
		wg.Add(1)
		go func(rec appointment.Record) {
			defer wg.Done()
			j.notifier.Deliver(ctx, Reminder(rec))
		}(rec)
	}
	wg.Wait()

	reminderRunsTotal.WithLabelValues("completed").Inc()
	log.Info("appointment reminders sent", zap.Int("count", len(records)))
	return len(records), nil
}
