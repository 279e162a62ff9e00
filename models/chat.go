package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageAuthor identifies who produced a chat message.
type MessageAuthor string

const (
	AuthorUser      MessageAuthor = "user"
	AuthorAssistant MessageAuthor = "assistant"
)

// MessageKind classifies how a chat message should be rendered.
type MessageKind string

const (
	KindText               MessageKind = "text"
	KindDiagnosis          MessageKind = "diagnosis"
	KindPharmacySuggestion MessageKind = "pharmacy_suggestion"
	KindLoading            MessageKind = "loading"
)

// ChatMessage is a single entry in the conversation transcript.
// Messages are immutable once appended; the only removal operation the
// store offers deletes loading placeholders by ID.
type ChatMessage struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Author    MessageAuthor `json:"author"`
	Kind      MessageKind   `json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
}

// HistoryLine renders the message the way it is fed back to the
// completion provider as conversational context.
func (m ChatMessage) HistoryLine() string {
	who := "User"
	if m.Author == AuthorAssistant {
		who = "Assistant"
	}
	return fmt.Sprintf("%s: %s", who, m.Content)
}

// ThreadStatus describes the lifecycle state of a conversation thread.
type ThreadStatus string

const (
	ThreadActive   ThreadStatus = "active"
	ThreadClosed   ThreadStatus = "closed"
	ThreadArchived ThreadStatus = "archived"
)

// ConversationThread is session metadata for the current conversation.
// It does not own messages; those live in the flat message store.
type ConversationThread struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Status    ThreadStatus `json:"status"`
}

// NewMessageID returns an opaque unique message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// NewThreadID returns an opaque unique thread identifier.
func NewThreadID() string {
	return "thread_" + uuid.NewString()
}
