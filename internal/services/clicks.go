package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bonkboard/backend/internal/broker"
	"github.com/bonkboard/backend/internal/models"
)

// Client-to-server message types on the live channel.
const (
	messageClick           = "click"
	messageSoundboardClick = "sbClick"
)

const milestoneNotificationDuration = 10_000 // ms

type clientMessage struct {
	Type  string `json:"type"`
	Sound string `json:"sound"`
}

// Broadcaster is the slice of the hub the services need: fire-and-forget
// fan-out to connected sessions.
type Broadcaster interface {
	Broadcast(event broker.Event, opts ...broker.BroadcastOptions)
}

// ClickService orchestrates one inbound click event: counters, milestone
// detection, and the fan-out to every connected session.
type ClickService struct {
	stats      *StatsService
	milestones *MilestoneService
	sounds     *SoundService
	hub        Broadcaster
	now        func() time.Time
}

// NewClickService wires the processor to the state it mutates and the hub
// it notifies.
func NewClickService(stats *StatsService, milestones *MilestoneService, sounds *SoundService, hub Broadcaster) *ClickService {
	return &ClickService{
		stats:      stats,
		milestones: milestones,
		sounds:     sounds,
		hub:        hub,
		now:        time.Now,
	}
}

// HandleMessage processes one raw client message. Unparseable payloads and
// unrecognized types are dropped without a reply.
func (s *ClickService) HandleMessage(sessionID string, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.Type {
	case messageClick:
		s.handleClick(sessionID, msg.Sound)
	case messageSoundboardClick:
		s.handleSoundboardClick(sessionID, msg.Sound)
	}
}

// handleClick counts a global click: every window counter moves, the
// milestone tracker is consulted, and everyone hears about it. The sound's
// own counter is untouched on this variant.
func (s *ClickService) handleClick(sessionID, filename string) {
	sound := s.sounds.Lookup(filename)
	if sound == nil {
		return
	}

	now := s.now()
	allTime := s.stats.RecordClick(now)
	reached := s.milestones.CheckAndReach(allTime, now.Unix(), sound.ID)

	s.hub.Broadcast(broker.Event{
		Type: broker.EventCrazyMode,
		Data: map[string]string{"sound": filename},
	}, broker.BroadcastOptions{Exclude: sessionID})

	s.hub.Broadcast(broker.Event{
		Type: broker.EventCounterUpdate,
		Data: models.CounterUpdate{
			Counter: allTime,
			Summary: s.stats.Summary(),
			Chart:   s.stats.LatestChartEntry(),
		},
	})

	if reached != nil {
		s.hub.Broadcast(broker.Event{
			Type: broker.EventNotification,
			Data: models.Notification{
				Text:     fmt.Sprintf("Milestone reached: %d clicks!", reached.Count),
				Duration: milestoneNotificationDuration,
			},
		})
		s.hub.Broadcast(broker.Event{
			Type: broker.EventMilestoneUpdate,
			Data: reached,
		})
	}
}

// handleSoundboardClick counts a click on a leaderboard entry: only that
// sound's own counter moves, global statistics and milestones stay put.
func (s *ClickService) handleSoundboardClick(sessionID, filename string) {
	sound := s.sounds.RecordSoundClick(filename)
	if sound == nil {
		return
	}

	s.hub.Broadcast(broker.Event{
		Type: broker.EventCrazyMode,
		Data: map[string]string{"sound": filename},
	}, broker.BroadcastOptions{Exclude: sessionID})

	s.hub.Broadcast(broker.Event{
		Type: broker.EventSoundClick,
		Data: sound,
	})
}
