package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/models"
)

// Scheduler runs the time-driven jobs: the periodic flush of in-memory
// state to durable storage and the four window rollovers. The rollover
// jobs fire independently and commute, because a midnight can also be a
// week, month, and year boundary at once.
type Scheduler struct {
	stats         *StatsService
	sounds        *SoundService
	queries       *db.Queries
	hub           Broadcaster
	flushInterval time.Duration
	now           func() time.Time
}

// NewScheduler creates a Scheduler; Start launches its jobs.
func NewScheduler(stats *StatsService, sounds *SoundService, queries *db.Queries, hub Broadcaster, flushInterval time.Duration) *Scheduler {
	return &Scheduler{
		stats:         stats,
		sounds:        sounds,
		queries:       queries,
		hub:           hub,
		flushInterval: flushInterval,
		now:           time.Now,
	}
}

// Start launches the flush ticker and the four boundary jobs. All stop
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runFlush(ctx)
	go s.runBoundary(ctx, nextMidnight, func(now time.Time) { s.stats.RolloverDaily(now) })
	go s.runBoundary(ctx, nextISOWeekStart, func(time.Time) { s.stats.RolloverWeekly() })
	go s.runBoundary(ctx, nextMonthStart, func(time.Time) { s.stats.RolloverMonthly() })
	go s.runBoundary(ctx, nextYearStart, func(time.Time) { s.stats.RolloverYearly() })
}

func (s *Scheduler) runFlush(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				slog.Error("periodic flush failed", slog.Any("error", err))
			}
		}
	}
}

// runBoundary sleeps to the next window boundary, fires the rollover, and
// broadcasts the refreshed summary. A late wake-up still fires once; missed
// boundaries are not queued.
func (s *Scheduler) runBoundary(ctx context.Context, next func(time.Time) time.Time, fire func(time.Time)) {
	for {
		now := s.now()
		timer := time.NewTimer(next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			fire(s.now())
			s.broadcastSummary()
		}
	}
}

func (s *Scheduler) broadcastSummary() {
	s.hub.Broadcast(broker.Event{
		Type: broker.EventCounterUpdate,
		Data: models.CounterUpdate{
			Counter: s.stats.AllTime(),
			Summary: s.stats.Summary(),
			Chart:   s.stats.LatestChartEntry(),
		},
	})
}

// Flush writes the current in-memory state to durable storage: the
// all-time counter, today's day and month rows, and every sound's click
// count. Memory stays authoritative; a failed write is retried by the next
// tick, not here.
func (s *Scheduler) Flush(ctx context.Context) error {
	snap := s.stats.FlushSnapshot(s.now())

	if err := s.queries.UpsertAllTime(ctx, snap.AllTime); err != nil {
		return err
	}
	if err := s.queries.UpsertStat(ctx, db.UpsertStatParams{Date: snap.Date, Count: snap.DailyCount}); err != nil {
		return err
	}
	if err := s.queries.UpsertChartMonth(ctx, db.UpsertChartMonthParams{Month: snap.Month, Count: snap.MonthCount}); err != nil {
		return err
	}

	for _, sc := range s.sounds.CountSnapshot() {
		if err := s.queries.UpdateSoundCount(ctx, sc); err != nil {
			return err
		}
	}
	return nil
}

// nextMidnight returns the first instant of the next day.
func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// nextISOWeekStart returns the first instant of the next Monday.
func nextISOWeekStart(now time.Time) time.Time {
	next := nextMidnight(now)
	for next.Weekday() != time.Monday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextMonthStart returns the first instant of the next month.
func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
}

// nextYearStart returns the first instant of the next year.
func nextYearStart(now time.Time) time.Time {
	return time.Date(now.Year()+1, 1, 1, 0, 0, 0, 0, now.Location())
}
