package stats

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// Scheduler runs the snapshot jobs in the background: the trend upsert every
// night at 02:00 and the weekly rollup on Monday at 03:00.
type Scheduler struct {
	svc  *Service
	cron *cron.Cron

	// Cleanup, when set, runs after the nightly snapshot to prune rows
	// past their retention window.
	Cleanup func(ctx context.Context) error
}

func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{svc: svc, cron: cron.New()}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 2 * * *", s.runDaily); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 3 * * 1", s.runWeekly); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("event=stats_scheduler_started jobs=2")
	return nil
}

// Stop waits for any running job before returning.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.svc.SaveCurrentDayTrend(ctx); err != nil {
		log.Printf("event=stats_daily_trend_failed error=%v", err)
	}
	if err := s.svc.SaveDailySnapshot(ctx); err != nil {
		log.Printf("event=stats_daily_snapshot_failed error=%v", err)
	}
	if s.Cleanup != nil {
		if err := s.Cleanup(ctx); err != nil {
			log.Printf("event=retention_cleanup_failed error=%v", err)
		}
	}
}

func (s *Scheduler) runWeekly() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.svc.SaveWeeklySnapshot(ctx); err != nil {
		log.Printf("event=stats_weekly_snapshot_failed error=%v", err)
	}
}
