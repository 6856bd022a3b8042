package schema

import "encoding/json"

// ConversationEvent reports an appended or in-place-updated log entry.
type ConversationEvent struct {
	Index   int
	Entry   ConversationEntry
	Updated bool
}

// SessionEvent reports coarse session state for presence and mode UI. It
// carries the full rebuildable view so consumers that missed an update
// (for example across a reconnect) are corrected by the next one.
type SessionEvent struct {
	Mode          SessionMode
	Status        ConnectionStatus
	StatusText    string
	Typing        bool
	CoursePicker  bool
	PendingText   string
	ProfileFields []string
}

// StudyEvent reports study artifact changes while study mode is active.
type StudyEvent struct {
	Subject         string
	Flashcards      []Flashcard
	Resources       []Resource
	Plan            []PlanStep
	GeneratingCards bool
	QAEntries       []ConversationEntry
}

// SessionState is a full snapshot of controller state for seeding a view.
type SessionState struct {
	Mode       SessionMode
	Status     ConnectionStatus
	StatusText string
	Typing     bool
	Entries    []ConversationEntry
	Study      StudyEvent
	StudyPanel json.RawMessage
	Quiz       json.RawMessage
	Results    json.RawMessage
}
