package broker

// Server-to-client event types on the live channel.
const (
	EventCrazyMode       = "crazyMode"
	EventCounterUpdate   = "counterUpdate"
	EventSoundClick      = "soundClick"
	EventSoundUpload     = "soundUpload"
	EventSoundModify     = "soundModify"
	EventSoundDelete     = "soundDelete"
	EventMilestoneAdd    = "milestoneAdd"
	EventMilestoneModify = "milestoneModify"
	EventMilestoneDelete = "milestoneDelete"
	EventMilestoneUpdate = "milestoneUpdate"
	EventNotification    = "notification"
)

// Event is one message pushed to connected sessions.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
