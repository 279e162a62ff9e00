package api

import (
	"github.com/mjozefiak/polcare/repository"
	"github.com/mjozefiak/polcare/services"
)

// APIHandler holds all dependencies for API handlers, such as the chat
// store, the conversation service and the reference-data repositories.
type APIHandler struct {
	store        services.ChatStore
	conversation services.ConversationService
	pharmacyRepo repository.PharmacyRepository
	doctorRepo   repository.DoctorRepository
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	store services.ChatStore,
	conversation services.ConversationService,
	pharmacyRepo repository.PharmacyRepository,
	doctorRepo repository.DoctorRepository,
) *APIHandler {
	return &APIHandler{
		store:        store,
		conversation: conversation,
		pharmacyRepo: pharmacyRepo,
		doctorRepo:   doctorRepo,
	}
}
