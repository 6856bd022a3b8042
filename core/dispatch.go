package core

import (
	"context"
	"time"

	"pkt.systems/sayam/schema"
)

func (s *service) HandleRaw(ctx context.Context, data []byte) {
	event, err := schema.DecodeAgentEvent(data)
	if err != nil {
		s.logger.Warn("session event decode failed", "err", err)
		s.mu.Lock()
		s.typing = false
		idx, entry := s.log.appendAgent(string(data), "")
		var em emitSet
		em.entry(idx, entry, false)
		em.session = s.sessionEventLocked()
		s.mu.Unlock()
		s.flush(ctx, em)
		return
	}
	s.HandleAgentEvent(ctx, event)
}

func (s *service) HandleAgentEvent(ctx context.Context, event schema.AgentEvent) {
	s.logger.Debug("session event", "event_type", event.Type)
	if event.Type == schema.EventAgentResponse {
		s.scheduleResponse(ctx, event)
		return
	}
	s.mu.Lock()
	var em emitSet
	switch event.Type {
	case schema.EventUserMessage:
		// Only the SMS bridge echoes user messages back; locally typed
		// text is already in the log.
		if event.Source == schema.SourceSMS {
			idx, entry := s.log.appendUser(event.Text, event.Source)
			em.entry(idx, entry, false)
		}
	case schema.EventThought:
		s.typing = false
		idx, entry, updated := s.log.addThought(event.Text)
		em.entry(idx, entry, updated)
		em.session = s.sessionEventLocked()
	case schema.EventStatus:
		s.statusText = event.Text
		if presence, ok := presenceFor(event.Text); ok && s.status != schema.StatusOffline {
			s.status = presence
		}
		em.session = s.sessionEventLocked()
	case schema.EventProfileNeeded:
		s.typing = false
		s.profileFields = append([]string(nil), event.Missing...)
		if event.Text != "" {
			idx, entry := s.log.appendAgent(event.Text, "")
			em.entry(idx, entry, false)
		}
		em.session = s.sessionEventLocked()
	case schema.EventWaitingForLogin:
		s.typing = false
		if event.Text != "" {
			idx, entry := s.log.appendAgent(event.Text, "")
			em.entry(idx, entry, false)
		}
		em.session = s.sessionEventLocked()
	case schema.EventStudyPanel:
		s.typing = false
		s.studyPanel = event.Raw
		if event.CourseName != "" {
			s.subject = event.CourseName
		}
		// An active blocking session owns the view; review material only
		// changes the mode from outside it.
		if s.mode != schema.ModeStudyMode {
			s.mode = schema.ModeStudy
		}
		em.session = s.sessionEventLocked()
	case schema.EventQuizStart:
		s.typing = false
		s.quiz = event.Raw
		s.mode = schema.ModeQuiz
		em.session = s.sessionEventLocked()
	case schema.EventBrowserNavigate:
		em.navigate = event.URL
	case schema.EventStudyResults:
		s.typing = false
		s.results = event.Raw
		if s.mode == schema.ModeStudyMode {
			if len(event.StudyPlan) > 0 {
				s.plan = append([]schema.PlanStep(nil), event.StudyPlan...)
			}
			em.study = s.studyEventLocked()
		} else {
			s.mode = schema.ModeResults
		}
		em.session = s.sessionEventLocked()
	case schema.EventStudyQAResponse:
		s.qa = append(s.qa, schema.ConversationEntry{Role: schema.RoleAgent, Text: event.Text})
		em.study = s.studyEventLocked()
	case schema.EventStudyModeActive:
		s.typing = false
		s.mode = schema.ModeStudyMode
		if event.Subject != "" {
			s.subject = event.Subject
		}
		if event.Text != "" {
			idx, entry := s.log.appendAgent(event.Text, "")
			em.entry(idx, entry, false)
		}
		enabled := true
		em.blocking = &enabled
		em.session = s.sessionEventLocked()
		em.study = s.studyEventLocked()
	case schema.EventStudyModeInactive:
		s.typing = false
		s.cards = nil
		s.resources = nil
		s.plan = nil
		s.generating = false
		s.snapshotID = ""
		if s.mode == schema.ModeStudyMode {
			s.mode = schema.ModeChat
		}
		if event.Text != "" {
			idx, entry := s.log.appendAgent(event.Text, "")
			em.entry(idx, entry, false)
		}
		disabled := false
		em.blocking = &disabled
		em.session = s.sessionEventLocked()
		em.study = s.studyEventLocked()
	case schema.EventAnkiCards:
		s.generating = false
		s.cards = append([]schema.Flashcard(nil), event.Cards...)
		s.maybeSnapshotLocked()
		em.study = s.studyEventLocked()
	case schema.EventOSUResources:
		s.resources = append([]schema.Resource(nil), event.Resources...)
		s.maybeSnapshotLocked()
		em.study = s.studyEventLocked()
	case schema.EventStudyPlan:
		s.plan = append([]schema.PlanStep(nil), event.Steps...)
		em.study = s.studyEventLocked()
	case schema.EventCoursePicker:
		s.typing = false
		s.coursePicker = true
		s.pendingText = event.Text
		em.session = s.sessionEventLocked()
	case schema.EventCourseConfirmed:
		s.coursePicker = false
		s.pendingText = ""
		if event.Text != "" {
			idx, entry := s.log.appendAgent(event.Text, "")
			em.entry(idx, entry, false)
		}
		em.session = s.sessionEventLocked()
	default:
		s.logger.Debug("session event unhandled", "event_type", event.Type)
		idx, entry := s.log.appendAgent(string(event.Raw), "")
		em.entry(idx, entry, false)
	}
	s.mu.Unlock()
	s.flush(ctx, em)
}

// scheduleResponse holds the agent's answer back until the reveal delay
// since the user's send has elapsed. Responses landing after the delay
// apply immediately; the timer callback never blocks the transport.
func (s *service) scheduleResponse(ctx context.Context, event schema.AgentEvent) {
	s.mu.Lock()
	remaining := time.Duration(0)
	if s.cfg.RevealDelay > 0 && !s.lastSendAt.IsZero() {
		remaining = s.cfg.RevealDelay - time.Since(s.lastSendAt)
	}
	if remaining > 0 {
		s.mu.Unlock()
		scheduleReveal(remaining, func() {
			s.applyResponse(context.Background(), event)
		})
		return
	}
	s.mu.Unlock()
	s.applyResponse(ctx, event)
}

func (s *service) applyResponse(ctx context.Context, event schema.AgentEvent) {
	s.mu.Lock()
	s.typing = false
	idx, entry, updated := s.log.finalize(event.Text, event.Source)
	var em emitSet
	em.entry(idx, entry, updated)
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
}

// presenceFor maps the recognized status labels onto the presence badge.
// Any other label only updates the status text; the link state owns the
// offline value.
func presenceFor(text string) (schema.ConnectionStatus, bool) {
	switch text {
	case "Executing":
		return schema.StatusExecuting, true
	case "Idle", "Study Mode":
		return schema.StatusConnected, true
	}
	return "", false
}
