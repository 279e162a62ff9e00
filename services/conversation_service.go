package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mjozefiak/polcare/config"
	"github.com/mjozefiak/polcare/models"
)

// ErrEmptyMessage is returned when the user input is empty or whitespace
// only. Nothing is appended to the transcript.
var ErrEmptyMessage = errors.New("message is empty")

// ErrTurnInProgress is returned when a send overlaps an in-flight turn.
// Overlapping sends are rejected rather than queued so loading placeholders
// never interleave.
var ErrTurnInProgress = errors.New("a turn is already in progress")

const (
	apologyText = "I apologize, but I'm experiencing some technical difficulties. Please try again or consider speaking with a healthcare professional."
	welcomeText = "👋 Hello! I'm your health assistant. What's bothering you today? Please describe your symptoms and I'll help you understand what might be wrong."
)

// ConversationService drives a full request/response turn: it owns the
// single-flight discipline, the completion call, and the guarantee that the
// loading placeholder and busy flag are cleaned up on every exit path.
type ConversationService interface {
	SendMessage(ctx context.Context, text string) error
	StartSession()
	ClearChat()
}

type conversationService struct {
	store       ChatStore
	completions CompletionClient
	interpreter ResponseInterpreter
	dispatcher  TriageDispatcher
	cfg         config.ChatConfig
	inFlight    atomic.Bool
}

// NewConversationService creates a new instance of ConversationService.
func NewConversationService(
	store ChatStore,
	completions CompletionClient,
	interpreter ResponseInterpreter,
	dispatcher TriageDispatcher,
	cfg config.ChatConfig,
) ConversationService {
	return &conversationService{
		store:       store,
		completions: completions,
		interpreter: interpreter,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// SendMessage runs one turn for the given user input. Provider failures and
// empty completions are recovered locally as a single apology message; the
// returned error only signals inputs that started no turn at all.
func (s *conversationService) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Println("WARN: [Conversation] Rejecting message: a turn is already in progress.")
		return ErrTurnInProgress
	}
	defer s.inFlight.Store(false)

	s.store.AppendUser(text)
	loadingID := s.store.AppendLoading()
	s.store.SetBusy(true)

	// Guaranteed cleanup on every exit path, success or failure.
	defer func() {
		s.store.RemoveLoading(loadingID)
		s.store.SetBusy(false)
	}()

	history := s.store.HistoryAsText()
	prompt := s.buildPrompt(text, history)

	raw, err := s.completions.Complete(ctx, prompt, CompletionContext{
		History:      history,
		Symptoms:     []string{text},
		LocationHint: s.cfg.LocationHint,
	})
	if err != nil {
		log.Printf("ERROR: [Conversation] Completion call failed: %v", err)
		s.store.AppendAssistant(apologyText, models.KindText)
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		log.Println("WARN: [Conversation] Completion returned empty content, treating as provider failure.")
		s.store.AppendAssistant(apologyText, models.KindText)
		return nil
	}

	diagnosis := s.interpreter.Interpret(raw)
	log.Printf("INFO: [Conversation] Diagnosis for turn: status=%s urgency=%s intent=%s", diagnosis.Status, diagnosis.Urgency, diagnosis.Intent)
	s.dispatcher.Dispatch(diagnosis)
	return nil
}

// StartSession schedules the welcome message for a fresh session. It is a
// no-op when the transcript already has messages.
func (s *conversationService) StartSession() {
	if len(s.store.Snapshot()) > 0 {
		return
	}
	s.scheduleWelcome()
}

// ClearChat empties the transcript and greets the user again. In-flight
// scheduled messages from before the clear are dropped by the epoch guard.
func (s *conversationService) ClearChat() {
	s.store.Clear()
	s.scheduleWelcome()
}

func (s *conversationService) scheduleWelcome() {
	epoch := s.store.Epoch()
	time.AfterFunc(s.cfg.WelcomeDelay(), func() {
		s.store.AppendAssistantIfCurrent(epoch, welcomeText, models.KindText)
	})
}

// buildPrompt assembles the free-form English prompt sent to the completion
// provider: current symptoms, the most recent history lines, and the
// configured location hint.
func (s *conversationService) buildPrompt(symptoms string, history []string) string {
	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = 3
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	historyPart := ""
	if len(history) > 0 {
		historyPart = fmt.Sprintf("Previous conversation: %s\n", strings.Join(history, "\n"))
	}

	return fmt.Sprintf(`You are a medical AI assistant helping travelers in %s with initial health assessments.

CONTEXT:
- User is currently experiencing: %s
- %s
- Language: English
- Location: %s

TASK:
Analyze the symptoms and provide:
1. Urgency level (low/medium/high)
2. Recommended action (ask_follow_up/pharmacy_drugs/see_doctor/emergency)
3. Follow-up questions if needed
4. Pharmacy recommendations if appropriate
5. Clear, reassuring response text

RESPONSE FORMAT:
Return analysis with intent, urgency, diagnosis details, response text, and follow-up questions.`,
		s.cfg.LocationHint, symptoms, historyPart, s.cfg.LocationHint)
}
