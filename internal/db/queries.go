package db

import (
	"context"
	"database/sql"
)

const getAllTime = `SELECT all_time FROM counter WHERE id = 1`

// GetAllTime reads the persisted all-time click count.
func (q *Queries) GetAllTime(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, getAllTime).Scan(&n)
	return n, err
}

const upsertAllTime = `UPDATE counter SET all_time = ? WHERE id = 1`

// UpsertAllTime writes the all-time click count.
func (q *Queries) UpsertAllTime(ctx context.Context, allTime int64) error {
	_, err := q.db.ExecContext(ctx, upsertAllTime, allTime)
	return err
}

const listStats = `SELECT date, count FROM stats ORDER BY date`

// ListStats returns every per-day row in chronological order.
func (q *Queries) ListStats(ctx context.Context) ([]Stat, error) {
	rows, err := q.db.QueryContext(ctx, listStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var s Stat
		if err := rows.Scan(&s.Date, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

const upsertStat = `
INSERT INTO stats (date, count) VALUES (?, ?)
ON CONFLICT(date) DO UPDATE SET count = excluded.count`

type UpsertStatParams struct {
	Date  string
	Count int64
}

// UpsertStat writes one per-day row, inserting or overwriting.
func (q *Queries) UpsertStat(ctx context.Context, arg UpsertStatParams) error {
	_, err := q.db.ExecContext(ctx, upsertStat, arg.Date, arg.Count)
	return err
}

const listChart = `SELECT month, count FROM chart ORDER BY month`

// ListChart returns every per-month row in chronological order.
func (q *Queries) ListChart(ctx context.Context) ([]ChartMonth, error) {
	rows, err := q.db.QueryContext(ctx, listChart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []ChartMonth
	for rows.Next() {
		var m ChartMonth
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

const upsertChartMonth = `
INSERT INTO chart (month, count) VALUES (?, ?)
ON CONFLICT(month) DO UPDATE SET count = excluded.count`

type UpsertChartMonthParams struct {
	Month string
	Count int64
}

// UpsertChartMonth writes one per-month row, inserting or overwriting.
func (q *Queries) UpsertChartMonth(ctx context.Context, arg UpsertChartMonthParams) error {
	_, err := q.db.ExecContext(ctx, upsertChartMonth, arg.Month, arg.Count)
	return err
}

const listSounds = `SELECT id, filename, display_name, source, count, association FROM sounds ORDER BY id`

// ListSounds returns every sound row ordered by id.
func (q *Queries) ListSounds(ctx context.Context) ([]Sound, error) {
	rows, err := q.db.QueryContext(ctx, listSounds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sounds []Sound
	for rows.Next() {
		var s Sound
		if err := rows.Scan(&s.ID, &s.Filename, &s.DisplayName, &s.Source, &s.Count, &s.Association); err != nil {
			return nil, err
		}
		sounds = append(sounds, s)
	}
	return sounds, rows.Err()
}

const createSound = `
INSERT INTO sounds (filename, display_name, source, count, association)
VALUES (?, ?, ?, ?, ?)
RETURNING id, filename, display_name, source, count, association`

type CreateSoundParams struct {
	Filename    string
	DisplayName sql.NullString
	Source      sql.NullString
	Count       int64
	Association sql.NullString
}

// CreateSound inserts a sound row and returns it with its assigned id.
func (q *Queries) CreateSound(ctx context.Context, arg CreateSoundParams) (Sound, error) {
	row := q.db.QueryRowContext(ctx, createSound,
		arg.Filename, arg.DisplayName, arg.Source, arg.Count, arg.Association)
	var s Sound
	err := row.Scan(&s.ID, &s.Filename, &s.DisplayName, &s.Source, &s.Count, &s.Association)
	return s, err
}

const updateSound = `
UPDATE sounds
SET filename = ?, display_name = ?, source = ?, count = ?, association = ?
WHERE id = ?`

type UpdateSoundParams struct {
	Filename    string
	DisplayName sql.NullString
	Source      sql.NullString
	Count       int64
	Association sql.NullString
	ID          int64
}

// UpdateSound overwrites every mutable column of a sound row.
func (q *Queries) UpdateSound(ctx context.Context, arg UpdateSoundParams) error {
	_, err := q.db.ExecContext(ctx, updateSound,
		arg.Filename, arg.DisplayName, arg.Source, arg.Count, arg.Association, arg.ID)
	return err
}

const updateSoundCount = `UPDATE sounds SET count = ? WHERE id = ?`

type UpdateSoundCountParams struct {
	Count int64
	ID    int64
}

// UpdateSoundCount writes only the per-sound click counter.
func (q *Queries) UpdateSoundCount(ctx context.Context, arg UpdateSoundCountParams) error {
	_, err := q.db.ExecContext(ctx, updateSoundCount, arg.Count, arg.ID)
	return err
}

const deleteSound = `DELETE FROM sounds WHERE id = ?`

// DeleteSound removes a sound row.
func (q *Queries) DeleteSound(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteSound, id)
	return err
}

const listMilestones = `SELECT id, count, reached, timestamp, sound_id FROM milestones ORDER BY count`

// ListMilestones returns every milestone row ordered by threshold.
func (q *Queries) ListMilestones(ctx context.Context) ([]Milestone, error) {
	rows, err := q.db.QueryContext(ctx, listMilestones)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		var m Milestone
		if err := rows.Scan(&m.ID, &m.Count, &m.Reached, &m.Timestamp, &m.SoundID); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

const createMilestone = `
INSERT INTO milestones (count, reached, timestamp, sound_id)
VALUES (?, ?, ?, ?)
RETURNING id, count, reached, timestamp, sound_id`

type CreateMilestoneParams struct {
	Count     int64
	Reached   bool
	Timestamp sql.NullInt64
	SoundID   sql.NullInt64
}

// CreateMilestone inserts a milestone row and returns it with its assigned id.
func (q *Queries) CreateMilestone(ctx context.Context, arg CreateMilestoneParams) (Milestone, error) {
	row := q.db.QueryRowContext(ctx, createMilestone,
		arg.Count, arg.Reached, arg.Timestamp, arg.SoundID)
	var m Milestone
	err := row.Scan(&m.ID, &m.Count, &m.Reached, &m.Timestamp, &m.SoundID)
	return m, err
}

const updateMilestone = `
UPDATE milestones
SET count = ?, reached = ?, timestamp = ?, sound_id = ?
WHERE id = ?`

type UpdateMilestoneParams struct {
	Count     int64
	Reached   bool
	Timestamp sql.NullInt64
	SoundID   sql.NullInt64
	ID        int64
}

// UpdateMilestone overwrites every mutable column of a milestone row.
func (q *Queries) UpdateMilestone(ctx context.Context, arg UpdateMilestoneParams) error {
	_, err := q.db.ExecContext(ctx, updateMilestone,
		arg.Count, arg.Reached, arg.Timestamp, arg.SoundID, arg.ID)
	return err
}

const deleteMilestone = `DELETE FROM milestones WHERE id = ?`

// DeleteMilestone removes a milestone row.
func (q *Queries) DeleteMilestone(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMilestone, id)
	return err
}
