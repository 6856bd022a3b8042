package sayam

import (
	"pkt.systems/sayam/browser"
	"pkt.systems/sayam/core"
	"pkt.systems/sayam/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnConversation(event schema.ConversationEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnConversation(event)
	}
}

func (f eventFanout) OnSession(event schema.SessionEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSession(event)
	}
}

func (f eventFanout) OnStudy(event schema.StudyEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnStudy(event)
	}
}

type tabFanout struct {
	sinks []browser.TabEventSink
}

func (f tabFanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabEvent(event)
	}
}
