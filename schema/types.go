package schema

// TabID identifies a browser tab surface.
type TabID string

// SnapshotID identifies a saved study session snapshot.
type SnapshotID string

// Role identifies the author of a conversation entry.
type Role string

const (
	// RoleUser marks entries authored by the user.
	RoleUser Role = "user"
	// RoleAgent marks entries authored by the agent.
	RoleAgent Role = "agent"
)

// SourceTag marks the origin channel of an entry.
type SourceTag string

// SourceSMS marks entries that arrived through the SMS side channel.
const SourceSMS SourceTag = "sms"

// SessionMode is the mutually exclusive UI interaction mode.
type SessionMode string

const (
	// ModeChat is the free-form conversation view.
	ModeChat SessionMode = "chat"
	// ModeStudy is the structured study review view.
	ModeStudy SessionMode = "study"
	// ModeQuiz is the timed quiz view.
	ModeQuiz SessionMode = "quiz"
	// ModeResults is the quiz results view.
	ModeResults SessionMode = "results"
	// ModeStudyMode is the distraction-blocking study view.
	ModeStudyMode SessionMode = "study_mode"
)

// ConnectionStatus describes the realtime link to the agent backend.
type ConnectionStatus string

const (
	// StatusIdle means no connection attempt has completed yet.
	StatusIdle ConnectionStatus = "idle"
	// StatusConnected means the link is up and the agent is idle.
	StatusConnected ConnectionStatus = "connected"
	// StatusExecuting means the link is up and the agent is working.
	StatusExecuting ConnectionStatus = "executing"
	// StatusOffline means the link is down; a reconnect is pending.
	StatusOffline ConnectionStatus = "offline"
)
