package core

import "pkt.systems/sayam/schema"

// EventSink receives conversation, session and study events from the core
// service. Callbacks run outside the service lock.
type EventSink interface {
	OnConversation(event schema.ConversationEvent)
	OnSession(event schema.SessionEvent)
	OnStudy(event schema.StudyEvent)
}
