// Package models defines the JSON request/response structures shared by the
// REST handlers, the live channel payloads, and the in-memory caches.
package models

// Sound is a sound clip with its per-sound click count.
type Sound struct {
	ID          int64   `json:"id"`
	Filename    string  `json:"filename"`
	DisplayName *string `json:"displayName,omitempty"`
	Source      *string `json:"source,omitempty"`
	Count       int64   `json:"count"`
	Association *string `json:"association,omitempty"`
}

// Milestone is a click-count threshold. Timestamp and SoundID are set when
// the threshold is reached and stay nil before that.
type Milestone struct {
	ID        int64  `json:"id"`
	Count     int64  `json:"count"`
	Reached   bool   `json:"reached"`
	Timestamp *int64 `json:"timestamp,omitempty"`
	SoundID   *int64 `json:"soundId,omitempty"`
}

// Summary is the rolled-up view of every counter window.
type Summary struct {
	AllTime int64 `json:"allTime"`
	Daily   int64 `json:"daily"`
	Weekly  int64 `json:"weekly"`
	Monthly int64 `json:"monthly"`
	Yearly  int64 `json:"yearly"`
	Average int64 `json:"average"`
}

// ChartEntry is one month on the chart.
type ChartEntry struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Login
type LoginRequest struct {
	PasswordHash string `json:"passwordHash"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Counter and connection info
type CounterResponse struct {
	Counter int64 `json:"counter"`
}

type ConnectionResponse struct {
	LivePath string `json:"livePath"`
	Sessions int    `json:"sessions"`
}

// CounterUpdate is pushed over the live channel after every global click
// and after every window rollover.
type CounterUpdate struct {
	Counter int64       `json:"counter"`
	Summary Summary     `json:"summary"`
	Chart   *ChartEntry `json:"chart,omitempty"`
}

// Milestone administration
type CreateMilestoneRequest struct {
	Count     int64  `json:"count"`
	Reached   bool   `json:"reached,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`
	SoundID   *int64 `json:"soundId,omitempty"`
}

type UpdateMilestoneRequest struct {
	Count     *int64 `json:"count,omitempty"`
	Reached   *bool  `json:"reached,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`
	SoundID   *int64 `json:"soundId,omitempty"`
}

// Notifications pushed by an admin to every connected tab.
type NotificationRequest struct {
	Text     string `json:"text"`
	Duration int64  `json:"duration,omitempty"` // milliseconds the toast stays visible
}

type Notification struct {
	Text     string `json:"text"`
	Duration int64  `json:"duration,omitempty"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
