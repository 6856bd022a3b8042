package core

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sayam/schema"
)

// service implements the core session controller behavior.
type service struct {
	cfg     schema.SessionConfig
	sender  Sender
	browser BrowserControl
	store   SnapshotSaver
	sink    EventSink
	logger  pslog.Logger

	mu            sync.Mutex
	log           *conversationLog
	qa            []schema.ConversationEntry
	mode          schema.SessionMode
	status        schema.ConnectionStatus
	statusText    string
	typing        bool
	coursePicker  bool
	pendingText   string
	profileFields []string
	subject       string
	cards         []schema.Flashcard
	resources     []schema.Resource
	plan          []schema.PlanStep
	generating    bool
	studyPanel    json.RawMessage
	quiz          json.RawMessage
	results       json.RawMessage
	snapshotID    schema.SnapshotID
	lastSendAt    time.Time
}

// scheduleReveal is a seam for tests; response reveal pacing runs through it.
var scheduleReveal = time.AfterFunc

// NewService constructs the core session controller.
func NewService(cfg schema.SessionConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:     cfg,
		sender:  deps.Sender,
		browser: deps.Browser,
		store:   deps.Snapshots,
		sink:    deps.EventSink,
		logger:  logger,
		log:     newConversationLog(cfg.LogMaxEntries),
		mode:    schema.ModeChat,
		status:  schema.StatusIdle,
	}, nil
}

// emitSet collects sink callbacks and browser actions gathered under the
// service lock; flush runs them after unlock.
type emitSet struct {
	conversation []schema.ConversationEvent
	session      *schema.SessionEvent
	study        *schema.StudyEvent
	navigate     string
	blocking     *bool
}

func (em *emitSet) entry(index int, entry schema.ConversationEntry, updated bool) {
	em.conversation = append(em.conversation, schema.ConversationEvent{Index: index, Entry: entry, Updated: updated})
}

func (s *service) sessionEventLocked() *schema.SessionEvent {
	return &schema.SessionEvent{
		Mode:          s.mode,
		Status:        s.status,
		StatusText:    s.statusText,
		Typing:        s.typing,
		CoursePicker:  s.coursePicker,
		PendingText:   s.pendingText,
		ProfileFields: append([]string(nil), s.profileFields...),
	}
}

func (s *service) studyEventLocked() *schema.StudyEvent {
	return &schema.StudyEvent{
		Subject:         s.subject,
		Flashcards:      append([]schema.Flashcard(nil), s.cards...),
		Resources:       append([]schema.Resource(nil), s.resources...),
		Plan:            append([]schema.PlanStep(nil), s.plan...),
		GeneratingCards: s.generating,
		QAEntries:       append([]schema.ConversationEntry(nil), s.qa...),
	}
}

func (s *service) flush(ctx context.Context, em emitSet) {
	if s.sink != nil {
		for _, event := range em.conversation {
			s.sink.OnConversation(event)
		}
		if em.session != nil {
			s.sink.OnSession(*em.session)
		}
		if em.study != nil {
			s.sink.OnStudy(*em.study)
		}
	}
	if s.browser == nil {
		return
	}
	if em.blocking != nil {
		if err := s.browser.SetBlocking(ctx, *em.blocking); err != nil {
			s.logger.Warn("session blocklist toggle failed", "enabled", *em.blocking, "err", err)
		}
	}
	if em.navigate != "" {
		if err := s.browser.Navigate(ctx, em.navigate); err != nil {
			s.logger.Warn("session browser navigate failed", "url", em.navigate, "err", err)
		}
	}
}

func (s *service) send(ctx context.Context, msg schema.ClientMessage) error {
	if s.sender == nil {
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("session send failed", "msg_type", msg.Type, "err", err)
		return err
	}
	return nil
}

func (s *service) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return schema.ErrEmptyMessage
	}
	s.mu.Lock()
	idx, entry := s.log.appendUser(text, "")
	s.typing = true
	s.lastSendAt = time.Now()
	var em emitSet
	em.entry(idx, entry, false)
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientUserMessage, Text: text})
}

func (s *service) Cancel(ctx context.Context) error {
	err := s.send(ctx, schema.ClientMessage{Type: schema.ClientCancel})
	s.mu.Lock()
	s.typing = false
	s.coursePicker = false
	s.pendingText = ""
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return err
}

func (s *service) CompleteQuiz(ctx context.Context, score, total int, wrong json.RawMessage) error {
	s.mu.Lock()
	s.typing = true
	s.lastSendAt = time.Now()
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{
		Type:           schema.ClientQuizComplete,
		Score:          score,
		Total:          total,
		WrongQuestions: wrong,
	})
}

func (s *service) SubmitCourse(ctx context.Context, course string) error {
	course = strings.TrimSpace(course)
	if course == "" {
		return schema.ErrInvalidRequest
	}
	s.mu.Lock()
	s.coursePicker = false
	s.pendingText = ""
	s.typing = true
	s.lastSendAt = time.Now()
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientSetCourse, Course: course})
}

func (s *service) ConfirmCourse(ctx context.Context) error {
	s.mu.Lock()
	s.coursePicker = false
	s.pendingText = ""
	s.typing = true
	s.lastSendAt = time.Now()
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientUserMessage, Text: "yes"})
}

func (s *service) AskStudyQA(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return schema.ErrEmptyMessage
	}
	s.mu.Lock()
	s.qa = append(s.qa, schema.ConversationEntry{Role: schema.RoleUser, Text: question})
	var em emitSet
	em.study = s.studyEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientStudyQA, Question: question})
}

func (s *service) GenerateCards(ctx context.Context) error {
	text := ""
	if s.browser != nil {
		extracted, err := s.browser.ActivePageText(ctx)
		if err != nil {
			s.logger.Warn("session page text extraction failed", "err", err)
		} else {
			text = extracted
		}
	}
	s.mu.Lock()
	s.generating = true
	subject := s.subject
	var em emitSet
	em.study = s.studyEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{
		Type:     schema.ClientGenerateCards,
		PageText: text,
		Subject:  subject,
	})
}

func (s *service) StartStudySession(ctx context.Context, subject string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return schema.ErrInvalidRequest
	}
	s.mu.Lock()
	s.subject = subject
	s.typing = true
	s.lastSendAt = time.Now()
	var em emitSet
	em.session = s.sessionEventLocked()
	em.study = s.studyEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientStartStudySession, Subject: subject})
}

func (s *service) StartQuiz(ctx context.Context) error {
	s.mu.Lock()
	if s.studyPanel == nil && s.quiz == nil {
		s.mu.Unlock()
		return schema.ErrInvalidRequest
	}
	s.mode = schema.ModeQuiz
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
	return nil
}

func (s *service) ExitQuiz(ctx context.Context) {
	s.mu.Lock()
	if s.studyPanel != nil {
		s.mode = schema.ModeStudy
	} else if s.mode == schema.ModeQuiz {
		s.mode = schema.ModeChat
	}
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
}

func (s *service) ExitToChat(ctx context.Context) {
	s.mu.Lock()
	s.studyPanel = nil
	s.quiz = nil
	s.results = nil
	if s.mode != schema.ModeStudyMode {
		s.mode = schema.ModeChat
	}
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.flush(ctx, em)
}

func (s *service) ExitStudyMode(ctx context.Context) error {
	// The mode flip and blocklist teardown happen when the backend
	// acknowledges with a study_mode_inactive event.
	return s.send(ctx, schema.ClientMessage{Type: schema.ClientStudyModeOff})
}

func (s *service) HandleConnection(ctx context.Context, connected bool) {
	s.mu.Lock()
	if connected {
		s.status = schema.StatusConnected
		s.statusText = "Connected"
	} else {
		s.status = schema.StatusOffline
		s.statusText = "Disconnected"
		s.typing = false
	}
	var em emitSet
	em.session = s.sessionEventLocked()
	s.mu.Unlock()
	s.logger.Debug("session connection change", "connected", connected)
	s.flush(ctx, em)
}

func (s *service) State(ctx context.Context) schema.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.SessionState{
		Mode:       s.mode,
		Status:     s.status,
		StatusText: s.statusText,
		Typing:     s.typing,
		Entries:    s.log.snapshot(),
		Study:      *s.studyEventLocked(),
		StudyPanel: append(json.RawMessage(nil), s.studyPanel...),
		Quiz:       append(json.RawMessage(nil), s.quiz...),
		Results:    append(json.RawMessage(nil), s.results...),
	}
}

// maybeSnapshotLocked persists study artifacts while the blocking mode is
// active. Reuses the snapshot id for the session so repeated artifact
// deliveries overwrite in place instead of piling up.
func (s *service) maybeSnapshotLocked() {
	if s.store == nil || s.mode != schema.ModeStudyMode {
		return
	}
	if len(s.cards) == 0 && len(s.resources) == 0 {
		return
	}
	id, err := s.store.Save(s.subject, s.cards, s.resources, s.snapshotID)
	if err != nil {
		s.logger.Warn("session snapshot save failed", "err", err)
		return
	}
	s.snapshotID = id
}
