package schema

import "encoding/json"

// AgentEventType is the top-level type discriminator on realtime messages
// emitted by the agent backend.
type AgentEventType string

const (
	// EventAgentResponse carries a finalized agent answer for the turn.
	EventAgentResponse AgentEventType = "agent_response"
	// EventUserMessage injects a user entry from an out-of-band channel.
	EventUserMessage AgentEventType = "user_message"
	// EventThought streams one intermediate reasoning step.
	EventThought AgentEventType = "thought"
	// EventStatus updates the free-text agent status label.
	EventStatus AgentEventType = "status"
	// EventProfileNeeded asks the UI to collect missing profile fields.
	EventProfileNeeded AgentEventType = "profile_needed"
	// EventWaitingForLogin signals the agent is blocked on a manual login.
	EventWaitingForLogin AgentEventType = "waiting_for_login"
	// EventStudyPanel delivers scraped course material for review.
	EventStudyPanel AgentEventType = "study_panel"
	// EventQuizStart delivers quiz questions and switches to quiz mode.
	EventQuizStart AgentEventType = "quiz_start"
	// EventBrowserNavigate asks the embedded browser to navigate.
	EventBrowserNavigate AgentEventType = "browser_navigate"
	// EventStudyResults delivers quiz grading and an optional study plan.
	EventStudyResults AgentEventType = "study_results"
	// EventStudyQAResponse answers a question asked inside study mode.
	EventStudyQAResponse AgentEventType = "study_qa_response"
	// EventStudyModeActive enables the distraction-blocking study mode.
	EventStudyModeActive AgentEventType = "study_mode_active"
	// EventStudyModeInactive disables study mode.
	EventStudyModeInactive AgentEventType = "study_mode_inactive"
	// EventAnkiCards delivers generated flashcards.
	EventAnkiCards AgentEventType = "anki_cards"
	// EventOSUResources delivers curated resource links.
	EventOSUResources AgentEventType = "osu_resources"
	// EventStudyPlan delivers study plan steps.
	EventStudyPlan AgentEventType = "study_plan"
	// EventCoursePicker opens the course confirmation sub-dialog.
	EventCoursePicker AgentEventType = "course_picker"
	// EventCourseConfirmed closes the course confirmation sub-dialog.
	EventCourseConfirmed AgentEventType = "course_confirmed"
)

// PlanStep is one step of a derived study plan.
type PlanStep struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// AgentEvent is the decoded shape of one realtime backend message. The
// backend emits flat JSON objects; fields beyond Type are populated
// depending on the discriminator and zero otherwise.
type AgentEvent struct {
	Type    AgentEventType `json:"type"`
	Text    string         `json:"text,omitempty"`
	Source  SourceTag      `json:"source,omitempty"`
	Missing []string       `json:"missing,omitempty"`
	Subject string         `json:"subject,omitempty"`
	URL     string         `json:"url,omitempty"`

	// study_panel payload.
	SessionID  int             `json:"session_id,omitempty"`
	CourseName string          `json:"course_name,omitempty"`
	Concepts   json.RawMessage `json:"concepts,omitempty"`
	Questions  json.RawMessage `json:"questions,omitempty"`
	ContentRaw string          `json:"content_raw,omitempty"`

	// study_results payload.
	Score              int             `json:"score,omitempty"`
	Total              int             `json:"total,omitempty"`
	Feedback           string          `json:"feedback,omitempty"`
	StudyPlan          []PlanStep      `json:"study_plan,omitempty"`
	FlashcardQuestions json.RawMessage `json:"flashcard_questions,omitempty"`

	// study artifact payloads.
	Cards     []Flashcard `json:"cards,omitempty"`
	Resources []Resource  `json:"resources,omitempty"`
	Steps     []PlanStep  `json:"steps,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// DecodeAgentEvent parses one realtime message. The raw payload is retained
// so callers can degrade undecodable input to a plain text entry.
func DecodeAgentEvent(data []byte) (AgentEvent, error) {
	var event AgentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return AgentEvent{Raw: append(json.RawMessage(nil), data...)}, err
	}
	if event.Type == "" {
		return AgentEvent{Raw: append(json.RawMessage(nil), data...)}, ErrUnknownEvent
	}
	event.Raw = append(json.RawMessage(nil), data...)
	return event, nil
}

// ClientMessageType is the type discriminator on outbound messages.
type ClientMessageType string

const (
	// ClientUserMessage sends a user prompt.
	ClientUserMessage ClientMessageType = "user_message"
	// ClientQuizComplete reports quiz score and missed questions.
	ClientQuizComplete ClientMessageType = "quiz_complete"
	// ClientCancel asks the backend to abort the current turn.
	ClientCancel ClientMessageType = "cancel"
	// ClientSetCourse answers the course picker.
	ClientSetCourse ClientMessageType = "set_course"
	// ClientStudyModeOff asks the backend to exit study mode.
	ClientStudyModeOff ClientMessageType = "study_mode_off"
	// ClientStudyQA asks a question inside study mode.
	ClientStudyQA ClientMessageType = "study_qa"
	// ClientGenerateCards asks for flashcards from extracted page text.
	ClientGenerateCards ClientMessageType = "generate_cards_from_page"
	// ClientStartStudySession asks the backend to begin a study session.
	ClientStartStudySession ClientMessageType = "start_study_session"
)

// ClientMessage is the flat JSON shape of one outbound message.
type ClientMessage struct {
	Type           ClientMessageType `json:"type"`
	Text           string            `json:"text,omitempty"`
	Course         string            `json:"course,omitempty"`
	Score          int               `json:"score,omitempty"`
	Total          int               `json:"total,omitempty"`
	WrongQuestions json.RawMessage   `json:"wrong_questions,omitempty"`
	CourseName     string            `json:"course_name,omitempty"`
	Concepts       json.RawMessage   `json:"concepts,omitempty"`
	PageText       string            `json:"page_text,omitempty"`
	Subject        string            `json:"subject,omitempty"`
	Question       string            `json:"question,omitempty"`
}
