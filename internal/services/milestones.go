package services

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"sync"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/models"
)

// UpdateMilestoneParams are the optional fields of a milestone modify; nil
// fields are left unchanged.
type UpdateMilestoneParams struct {
	Count     *int64
	Reached   *bool
	Timestamp *int64
	SoundID   *int64
}

// MilestoneService owns the ordered set of click-count thresholds. Admin
// mutations write durable storage before touching memory; the click-path
// reach is memory-first with the durable update trailing, consistent with
// the flush model for counters.
type MilestoneService struct {
	mu         sync.Mutex
	queries    *db.Queries
	milestones []models.Milestone // sorted by Count ascending
}

// NewMilestoneService builds the tracker from the durable rows.
func NewMilestoneService(queries *db.Queries, rows []db.Milestone) *MilestoneService {
	s := &MilestoneService{queries: queries}
	for _, row := range rows {
		s.milestones = append(s.milestones, milestoneFromRow(row))
	}
	s.sortLocked()
	return s
}

func milestoneFromRow(row db.Milestone) models.Milestone {
	m := models.Milestone{ID: row.ID, Count: row.Count, Reached: row.Reached}
	if row.Timestamp.Valid {
		ts := row.Timestamp.Int64
		m.Timestamp = &ts
	}
	if row.SoundID.Valid {
		id := row.SoundID.Int64
		m.SoundID = &id
	}
	return m
}

func (s *MilestoneService) sortLocked() {
	sort.Slice(s.milestones, func(i, j int) bool {
		return s.milestones[i].Count < s.milestones[j].Count
	})
}

// List returns milestones, optionally filtered by reached state and
// associated sound.
func (s *MilestoneService) List(reached *bool, soundID *int64) []models.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Milestone, 0, len(s.milestones))
	for _, m := range s.milestones {
		if reached != nil && m.Reached != *reached {
			continue
		}
		if soundID != nil && (m.SoundID == nil || *m.SoundID != *soundID) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CheckAndReach marks the lowest unreached milestone whose threshold the
// all-time count has met, recording the triggering timestamp and sound.
// At most one milestone is reached per call; a reached milestone never
// changes again. Returns nil when no threshold was crossed.
func (s *MilestoneService) CheckAndReach(allTime, timestamp, soundID int64) *models.Milestone {
	s.mu.Lock()
	var hit *models.Milestone
	for i := range s.milestones {
		if !s.milestones[i].Reached && s.milestones[i].Count <= allTime {
			ts, sid := timestamp, soundID
			s.milestones[i].Reached = true
			s.milestones[i].Timestamp = &ts
			s.milestones[i].SoundID = &sid
			m := s.milestones[i]
			hit = &m
			break
		}
	}
	s.mu.Unlock()

	if hit == nil {
		return nil
	}

	// Memory is authoritative between flushes; the durable write trails.
	go func(m models.Milestone) {
		if err := s.queries.UpdateMilestone(context.Background(), updateParams(m)); err != nil {
			slog.Error("failed to persist reached milestone",
				slog.Int64("milestone_id", m.ID), slog.Any("error", err))
		}
	}(*hit)

	return hit
}

func updateParams(m models.Milestone) db.UpdateMilestoneParams {
	p := db.UpdateMilestoneParams{ID: m.ID, Count: m.Count, Reached: m.Reached}
	if m.Timestamp != nil {
		p.Timestamp = sql.NullInt64{Int64: *m.Timestamp, Valid: true}
	}
	if m.SoundID != nil {
		p.SoundID = sql.NullInt64{Int64: *m.SoundID, Valid: true}
	}
	return p
}

// Add creates a milestone. The threshold must be unique.
func (s *MilestoneService) Add(ctx context.Context, count int64, reached bool, timestamp, soundID *int64) (models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.milestones {
		if m.Count == count {
			return models.Milestone{}, apperr.ErrDuplicateThreshold
		}
	}

	params := db.CreateMilestoneParams{Count: count, Reached: reached}
	if timestamp != nil {
		params.Timestamp = sql.NullInt64{Int64: *timestamp, Valid: true}
	}
	if soundID != nil {
		params.SoundID = sql.NullInt64{Int64: *soundID, Valid: true}
	}

	row, err := s.queries.CreateMilestone(ctx, params)
	if err != nil {
		return models.Milestone{}, apperr.Storage(err)
	}

	m := milestoneFromRow(row)
	s.milestones = append(s.milestones, m)
	s.sortLocked()
	return m, nil
}

// Modify updates the given fields of a milestone.
func (s *MilestoneService) Modify(ctx context.Context, id int64, params UpdateMilestoneParams) (models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.milestones {
		if s.milestones[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Milestone{}, apperr.ErrNotFound
	}

	updated := s.milestones[idx]
	if params.Count != nil {
		for _, m := range s.milestones {
			if m.ID != id && m.Count == *params.Count {
				return models.Milestone{}, apperr.ErrDuplicateThreshold
			}
		}
		updated.Count = *params.Count
	}
	if params.Reached != nil {
		updated.Reached = *params.Reached
	}
	if params.Timestamp != nil {
		ts := *params.Timestamp
		updated.Timestamp = &ts
	}
	if params.SoundID != nil {
		sid := *params.SoundID
		updated.SoundID = &sid
	}

	if err := s.queries.UpdateMilestone(ctx, updateParams(updated)); err != nil {
		return models.Milestone{}, apperr.Storage(err)
	}

	s.milestones[idx] = updated
	s.sortLocked()
	return updated, nil
}

// Remove deletes a milestone and returns the removed record.
func (s *MilestoneService) Remove(ctx context.Context, id int64) (models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.milestones {
		if s.milestones[i].ID == id {
			removed := s.milestones[i]
			if err := s.queries.DeleteMilestone(ctx, id); err != nil {
				return models.Milestone{}, apperr.Storage(err)
			}
			s.milestones = append(s.milestones[:i], s.milestones[i+1:]...)
			return removed, nil
		}
	}
	return models.Milestone{}, apperr.ErrNotFound
}
