package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mjozefiak/polcare/config"
	"github.com/mjozefiak/polcare/models"
	"github.com/mjozefiak/polcare/repository"
)

const doctorAdvisoryText = "Based on your symptoms, I recommend seeking professional medical advice. Would you like help finding a doctor or hospital near you?"

// pharmacyLookupTimeout bounds the asynchronous pharmacy lookup, which
// outlives the HTTP request that triggered the turn.
const pharmacyLookupTimeout = 10 * time.Second

// TriageDispatcher sequences the user-visible side effects of a diagnosis:
// the immediate response, a delayed follow-up question, a pharmacy
// suggestion, or a terminal advisory. The response text is always the first
// assistant message of the turn; secondary messages strictly follow it.
//
// Delayed messages are bound to the store epoch captured at dispatch time,
// so clearing the chat suppresses anything still in flight.
type TriageDispatcher interface {
	Dispatch(diagnosis *models.Diagnosis)
}

type triageDispatcher struct {
	store           ChatStore
	pharmacies      repository.PharmacyRepository
	followUpDelay   time.Duration
	pharmacyDelay   time.Duration
	emergencyNumber string
}

// NewTriageDispatcher creates a new instance of TriageDispatcher.
func NewTriageDispatcher(store ChatStore, pharmacies repository.PharmacyRepository, cfg config.ChatConfig) TriageDispatcher {
	return &triageDispatcher{
		store:           store,
		pharmacies:      pharmacies,
		followUpDelay:   cfg.FollowUpDelay(),
		pharmacyDelay:   cfg.PharmacyDelay(),
		emergencyNumber: cfg.EmergencyNumber,
	}
}

// Dispatch executes the state machine for one completed user turn.
// It never fails the turn: lookup errors and unknown statuses degrade to
// showing only the main response.
func (d *triageDispatcher) Dispatch(diagnosis *models.Diagnosis) {
	d.store.AppendAssistant(diagnosis.ResponseText, models.KindDiagnosis)

	switch diagnosis.Status {
	case models.StatusFollowUpNeeded:
		d.scheduleFollowUp(diagnosis)

	case models.StatusPharmacyRecommended:
		d.schedulePharmacySuggestion()

	case models.StatusDoctorAdvised:
		d.store.AppendAssistant(doctorAdvisoryText, models.KindDiagnosis)

	case models.StatusEmergency:
		advisory := fmt.Sprintf("If you are experiencing severe symptoms, please seek immediate medical attention or call emergency services at %s.", d.emergencyNumber)
		d.store.AppendAssistant(advisory, models.KindDiagnosis)

	default:
		log.Printf("WARN: [Dispatcher] Unknown diagnosis status '%s'; showing main response only.", diagnosis.Status)
	}
}

// scheduleFollowUp surfaces at most the first follow-up question after the
// pacing delay.
func (d *triageDispatcher) scheduleFollowUp(diagnosis *models.Diagnosis) {
	if len(diagnosis.FollowUpQuestions) == 0 {
		return
	}
	question := diagnosis.FollowUpQuestions[0]
	epoch := d.store.Epoch()
	time.AfterFunc(d.followUpDelay, func() {
		d.store.AppendAssistantIfCurrent(epoch, "To help you better: "+question, models.KindText)
	})
}

// schedulePharmacySuggestion asynchronously queries the pharmacy
// collaborator and, after the pacing delay, names the nearest result.
// An empty or failed lookup completes the turn without a pharmacy message.
func (d *triageDispatcher) schedulePharmacySuggestion() {
	epoch := d.store.Epoch()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pharmacyLookupTimeout)
		defer cancel()

		pharmacies, err := d.pharmacies.ListAll(ctx)
		if err != nil {
			log.Printf("ERROR: [Dispatcher] Pharmacy lookup failed, skipping suggestion: %v", err)
			return
		}
		if len(pharmacies) == 0 {
			log.Println("WARN: [Dispatcher] No pharmacies known, skipping suggestion.")
			return
		}

		nearest := pharmacies[0]
		suggestion := fmt.Sprintf("I found a nearby pharmacy: %s at %s. A pharmacist can help you with appropriate medications for your symptoms.", nearest.Name, nearest.Address)
		time.AfterFunc(d.pharmacyDelay, func() {
			d.store.AppendAssistantIfCurrent(epoch, suggestion, models.KindPharmacySuggestion)
		})
	}()
}
