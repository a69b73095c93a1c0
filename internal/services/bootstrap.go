package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/filestore"
)

// State bundles the in-memory services loaded from durable storage. It is
// the explicit owner of all process state: built once at boot, flushed
// once at shutdown.
type State struct {
	Stats      *StatsService
	Milestones *MilestoneService
	Sounds     *SoundService
}

// LoadState reads durable storage and builds the in-memory services.
// Between flushes memory is authoritative; this is the only moment disk
// leads.
func LoadState(ctx context.Context, queries *db.Queries, files *filestore.Store, now time.Time) (*State, error) {
	allTime, err := queries.GetAllTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("load counter: %w", err)
	}

	stats, err := queries.ListStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	chart, err := queries.ListChart(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chart: %w", err)
	}

	sounds, err := queries.ListSounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sounds: %w", err)
	}

	milestones, err := queries.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load milestones: %w", err)
	}

	statsService := NewStatsService(allTime, stats, chart, now)

	// Make sure the synthesized boot-day row exists on disk too, so a crash
	// before the first flush still leaves the day represented.
	today := now.Format(dateLayout)
	if err := queries.UpsertStat(ctx, db.UpsertStatParams{Date: today, Count: statsService.Summary().Daily}); err != nil {
		return nil, fmt.Errorf("seed boot day: %w", err)
	}

	return &State{
		Stats:      statsService,
		Milestones: NewMilestoneService(queries, milestones),
		Sounds:     NewSoundService(queries, files, sounds),
	}, nil
}
