package db

import "database/sql"

// Stat is one per-day click total.
type Stat struct {
	Date  string
	Count int64
}

// ChartMonth is one per-month click total.
type ChartMonth struct {
	Month string
	Count int64
}

// Sound is a sound clip row.
type Sound struct {
	ID          int64
	Filename    string
	DisplayName sql.NullString
	Source      sql.NullString
	Count       int64
	Association sql.NullString
}

// Milestone is a click-count threshold row.
type Milestone struct {
	ID        int64
	Count     int64
	Reached   bool
	Timestamp sql.NullInt64
	SoundID   sql.NullInt64
}
