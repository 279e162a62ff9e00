package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mjozefiak/polcare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCompletionClient is a mock type for the CompletionClient interface.
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string, cc CompletionContext) (string, error) {
	args := m.Called(ctx, prompt, cc)
	return args.String(0), args.Error(1)
}

// newTestConversation wires a real store, interpreter and dispatcher around
// the mocked completion provider and pharmacy collaborator.
func newTestConversation(completions CompletionClient, pharmacies *MockPharmacyRepository) (ConversationService, ChatStore) {
	store := NewChatStore()
	dispatcher := NewTriageDispatcher(store, pharmacies, testChatConfig())
	svc := NewConversationService(store, completions, NewResponseInterpreter(), dispatcher, testChatConfig())
	return svc, store
}

func TestConversation_PharmacyScenario(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"analysis":{"urgency_level":"medium","recommended_action":"pharmacy_drugs"},"response_text":"Try rest and fluids."}`, nil).Once()

	mockRepo := new(MockPharmacyRepository)
	mockRepo.On("ListAll", mock.Anything).Return([]models.Pharmacy{
		{ID: "ph_001", Name: "Apteka Pod Orionem", Address: "ul. Marszałkowska 144, Warszawa"},
		{ID: "ph_002", Name: "Apteka Główna", Address: "ul. Krakowskie Przedmieście 15, Warszawa"},
	}, nil).Once()

	svc, store := newTestConversation(mockLLM, mockRepo)

	err := svc.SendMessage(context.Background(), "I have a headache and mild fever")
	assert.NoError(t, err)

	// Synchronous part of the turn: user message, diagnosis response,
	// loading placeholder already removed.
	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.Equal(t, models.AuthorUser, snapshot[0].Author)
	assert.Equal(t, "I have a headache and mild fever", snapshot[0].Content)
	assert.Equal(t, "Try rest and fluids.", snapshot[1].Content)
	assert.Equal(t, models.KindDiagnosis, snapshot[1].Kind)
	assert.False(t, store.IsBusy())

	// The pharmacy suggestion arrives after the scheduled delay.
	waitForMessageCount(t, store, 3)
	snapshot = store.Snapshot()
	assert.Equal(t, models.KindPharmacySuggestion, snapshot[2].Kind)
	assert.Contains(t, snapshot[2].Content, "Apteka Pod Orionem")

	mockLLM.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestConversation_ProviderFailureYieldsApology(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("network error")).Once()

	svc, store := newTestConversation(mockLLM, new(MockPharmacyRepository))

	err := svc.SendMessage(context.Background(), "I feel dizzy")
	assert.NoError(t, err, "provider failure is recovered locally")

	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 2, "user message plus one apology; loading placeholder removed")
	assert.Equal(t, models.AuthorUser, snapshot[0].Author)
	assert.Contains(t, snapshot[1].Content, "technical difficulties")
	assert.Equal(t, models.KindText, snapshot[1].Kind)
	assert.False(t, store.IsBusy())

	// No secondary message ever shows up.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, store.Snapshot(), 2)
}

func TestConversation_EmptyCompletionYieldsApology(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", nil).Once()

	svc, store := newTestConversation(mockLLM, new(MockPharmacyRepository))

	err := svc.SendMessage(context.Background(), "I feel dizzy")
	assert.NoError(t, err)

	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.Contains(t, snapshot[1].Content, "technical difficulties")
	assert.False(t, store.IsBusy())
}

func TestConversation_KeywordEmergencyScenario(t *testing.T) {
	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("Please call emergency services, this is urgent, dial 112", nil).Once()

	svc, store := newTestConversation(mockLLM, new(MockPharmacyRepository))

	err := svc.SendMessage(context.Background(), "Severe chest pain and shortness of breath")
	assert.NoError(t, err)

	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 3, "advisory follows the main response immediately")
	assert.Equal(t, "Please call emergency services, this is urgent, dial 112", snapshot[1].Content)
	assert.Contains(t, snapshot[2].Content, "call emergency services at 112")

	// Terminal turn: no follow-up question is ever appended.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, store.Snapshot(), 3)
}

func TestConversation_RejectsEmptyInput(t *testing.T) {
	svc, store := newTestConversation(new(MockCompletionClient), new(MockPharmacyRepository))

	assert.ErrorIs(t, svc.SendMessage(context.Background(), ""), ErrEmptyMessage)
	assert.ErrorIs(t, svc.SendMessage(context.Background(), "   \n\t"), ErrEmptyMessage)
	assert.Empty(t, store.Snapshot(), "no message appended for rejected input")
	assert.False(t, store.IsBusy())
}

func TestConversation_RejectsOverlappingTurn(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return("Thanks for sharing that with me.", nil).Once()

	svc, store := newTestConversation(mockLLM, new(MockPharmacyRepository))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.SendMessage(context.Background(), "first message"))
	}()

	<-started
	assert.True(t, store.IsBusy())
	assert.ErrorIs(t, svc.SendMessage(context.Background(), "second message"), ErrTurnInProgress)

	close(release)
	wg.Wait()

	// Only the first turn left traces: one user message, one response, and
	// exactly one loading placeholder was appended and removed.
	snapshot := store.Snapshot()
	userCount := 0
	for _, msg := range snapshot {
		assert.NotEqual(t, models.KindLoading, msg.Kind)
		if msg.Author == models.AuthorUser {
			userCount++
		}
	}
	assert.Equal(t, 1, userCount)
	assert.False(t, store.IsBusy())
}

func TestConversation_PromptContract(t *testing.T) {
	var capturedPrompt string
	var capturedContext CompletionContext

	mockLLM := new(MockCompletionClient)
	mockLLM.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedPrompt = args.String(1)
			capturedContext = args.Get(2).(CompletionContext)
		}).
		Return("Thanks for sharing that with me.", nil)

	svc, store := newTestConversation(mockLLM, new(MockPharmacyRepository))
	store.AppendAssistant("How can I help?", models.KindText)

	err := svc.SendMessage(context.Background(), "I have a sore throat")
	assert.NoError(t, err)

	assert.Contains(t, capturedPrompt, "User is currently experiencing: I have a sore throat")
	assert.Contains(t, capturedPrompt, "Location: Poland")
	assert.Contains(t, capturedPrompt, "Previous conversation:")
	assert.Contains(t, capturedPrompt, "Assistant: How can I help?")

	assert.Equal(t, []string{"I have a sore throat"}, capturedContext.Symptoms)
	assert.Equal(t, "Poland", capturedContext.LocationHint)
	assert.Contains(t, capturedContext.History, "User: I have a sore throat")
}

func TestConversation_WelcomeMessage(t *testing.T) {
	svc, store := newTestConversation(new(MockCompletionClient), new(MockPharmacyRepository))

	svc.StartSession()
	waitForMessageCount(t, store, 1)

	snapshot := store.Snapshot()
	assert.Equal(t, models.AuthorAssistant, snapshot[0].Author)
	assert.Contains(t, snapshot[0].Content, "health assistant")

	// A second StartSession on a non-empty transcript is a no-op.
	svc.StartSession()
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, store.Snapshot(), 1)
}

func TestConversation_ClearChatGreetsAgain(t *testing.T) {
	svc, store := newTestConversation(new(MockCompletionClient), new(MockPharmacyRepository))
	store.AppendUser("old message")

	svc.ClearChat()
	waitForMessageCount(t, store, 1)

	snapshot := store.Snapshot()
	assert.Equal(t, models.AuthorAssistant, snapshot[0].Author)
	assert.Contains(t, snapshot[0].Content, "health assistant")
}
