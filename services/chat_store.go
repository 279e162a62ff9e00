package services

import (
	"log"
	"sync"
	"time"

	"github.com/mjozefiak/polcare/models"
)

// LoadingIndicatorText is the fixed content of the transient placeholder
// message shown while the completion provider is working.
const LoadingIndicatorText = "AI is analyzing your symptoms..."

// ChatStore is the ordered, append-only log of chat messages for the
// current session, plus the process-wide busy indicator the UI reads.
// Messages are never mutated after creation; the only removal operation
// deletes loading placeholders by ID.
//
// Clear bumps the store epoch. Scheduled side effects capture the epoch at
// scheduling time and use AppendAssistantIfCurrent so a cleared chat never
// receives messages from a previous generation.
type ChatStore interface {
	AppendUser(content string) string
	AppendAssistant(content string, kind models.MessageKind) string
	AppendLoading() string
	RemoveLoading(id string)
	SetBusy(busy bool)
	IsBusy() bool
	Snapshot() []models.ChatMessage
	HistoryAsText() []string
	CurrentThread() *models.ConversationThread
	Clear()
	Epoch() uint64
	AppendAssistantIfCurrent(epoch uint64, content string, kind models.MessageKind) (string, bool)
	Subscribe(listener func()) (unsubscribe func())
}

type chatStore struct {
	mu        sync.RWMutex
	messages  []models.ChatMessage
	thread    *models.ConversationThread
	busy      bool
	epoch     uint64
	listeners map[int]func()
	nextSub   int
}

// NewChatStore creates an empty session-scoped chat store.
func NewChatStore() ChatStore {
	return &chatStore{
		listeners: make(map[int]func()),
	}
}

// AppendUser creates and appends a text message authored by the user.
func (s *chatStore) AppendUser(content string) string {
	return s.append(content, models.AuthorUser, models.KindText)
}

// AppendAssistant creates and appends an assistant message of the given
// kind. An empty kind defaults to text.
func (s *chatStore) AppendAssistant(content string, kind models.MessageKind) string {
	if kind == "" {
		kind = models.KindText
	}
	return s.append(content, models.AuthorAssistant, kind)
}

// AppendLoading appends the transient placeholder shown while a turn is in
// flight and returns its ID for later removal.
func (s *chatStore) AppendLoading() string {
	return s.append(LoadingIndicatorText, models.AuthorAssistant, models.KindLoading)
}

func (s *chatStore) append(content string, author models.MessageAuthor, kind models.MessageKind) string {
	s.mu.Lock()
	s.ensureThreadLocked()
	msg := models.ChatMessage{
		ID:        models.NewMessageID(),
		Content:   content,
		Author:    author,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.notify()
	return msg.ID
}

// RemoveLoading removes the loading-kind message with the given ID.
// Calling it twice is a no-op the second time; cleanup paths rely on that.
func (s *chatStore) RemoveLoading(id string) {
	s.mu.Lock()
	removed := false
	for i, msg := range s.messages {
		if msg.ID == id && msg.Kind == models.KindLoading {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// SetBusy sets the process-wide busy indicator.
func (s *chatStore) SetBusy(busy bool) {
	s.mu.Lock()
	changed := s.busy != busy
	s.busy = busy
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// IsBusy reports whether a turn is currently in flight.
func (s *chatStore) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Snapshot returns a defensive copy of the transcript in insertion order.
func (s *chatStore) Snapshot() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]models.ChatMessage, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// HistoryAsText renders the transcript as "<Assistant|User>: <content>"
// lines, used as conversational context for the next completion request.
func (s *chatStore) HistoryAsText() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]string, 0, len(s.messages))
	for _, msg := range s.messages {
		history = append(history, msg.HistoryLine())
	}
	return history
}

// CurrentThread returns a copy of the active thread metadata, or nil when
// no interaction has happened yet in this session.
func (s *chatStore) CurrentThread() *models.ConversationThread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.thread == nil {
		return nil
	}
	thread := *s.thread
	return &thread
}

// Clear empties the message log, resets the active thread to none and bumps
// the epoch so in-flight scheduled messages from the previous generation
// are dropped.
func (s *chatStore) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.thread = nil
	s.epoch++
	s.mu.Unlock()

	s.notify()
}

// Epoch returns the current store generation.
func (s *chatStore) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// AppendAssistantIfCurrent appends an assistant message only when the store
// is still on the generation that scheduled it. It reports whether the
// message was applied.
func (s *chatStore) AppendAssistantIfCurrent(epoch uint64, content string, kind models.MessageKind) (string, bool) {
	if kind == "" {
		kind = models.KindText
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		log.Printf("INFO: [ChatStore] Dropping scheduled message for stale epoch %d (current %d).", epoch, s.epoch)
		return "", false
	}
	s.ensureThreadLocked()
	msg := models.ChatMessage{
		ID:        models.NewMessageID(),
		Content:   content,
		Author:    models.AuthorAssistant,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	s.notify()
	return msg.ID, true
}

// Subscribe registers a listener invoked after every observable mutation.
// The returned function removes the subscription.
func (s *chatStore) Subscribe(listener func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// ensureThreadLocked lazily creates the active thread. Caller must hold mu.
func (s *chatStore) ensureThreadLocked() {
	if s.thread == nil {
		s.thread = &models.ConversationThread{
			ID:        models.NewThreadID(),
			CreatedAt: time.Now(),
			Status:    models.ThreadActive,
		}
	}
}

// notify invokes listeners outside the lock so they may read the store.
func (s *chatStore) notify() {
	s.mu.RLock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l()
	}
}
