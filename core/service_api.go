package core

import (
	"context"
	"encoding/json"

	"pkt.systems/sayam/schema"
)

// Service is the session controller. Inbound realtime traffic enters via
// HandleRaw/HandleAgentEvent and HandleConnection; everything else is a
// user-initiated operation.
type Service interface {
	// HandleRaw decodes one realtime payload and dispatches it. Undecodable
	// payloads degrade to a plain text agent entry.
	HandleRaw(ctx context.Context, data []byte)
	// HandleAgentEvent dispatches one decoded backend event.
	HandleAgentEvent(ctx context.Context, event schema.AgentEvent)
	// HandleConnection records a link state change from the transport.
	HandleConnection(ctx context.Context, connected bool)

	// SendMessage appends a user entry and forwards it to the backend.
	SendMessage(ctx context.Context, text string) error
	// Cancel asks the backend to abort the current turn and clears local
	// pending state immediately.
	Cancel(ctx context.Context) error
	// CompleteQuiz reports the quiz outcome for grading.
	CompleteQuiz(ctx context.Context, score, total int, wrong json.RawMessage) error
	// SubmitCourse answers the course picker with an explicit course.
	SubmitCourse(ctx context.Context, course string) error
	// ConfirmCourse accepts the course suggested by the picker.
	ConfirmCourse(ctx context.Context) error
	// AskStudyQA asks a question on the study mode side thread.
	AskStudyQA(ctx context.Context, question string) error
	// GenerateCards extracts the active page text and requests flashcards.
	GenerateCards(ctx context.Context) error
	// StartStudySession asks the backend to begin a study session.
	StartStudySession(ctx context.Context, subject string) error
	// StartQuiz switches to the quiz view over the delivered material.
	StartQuiz(ctx context.Context) error
	// ExitQuiz leaves the quiz view without submitting.
	ExitQuiz(ctx context.Context)
	// ExitToChat discards study material and returns to the chat view.
	ExitToChat(ctx context.Context)
	// ExitStudyMode asks the backend to end the distraction-blocking mode.
	ExitStudyMode(ctx context.Context) error

	// State returns a full copy of controller state for seeding a view.
	State(ctx context.Context) schema.SessionState
}
