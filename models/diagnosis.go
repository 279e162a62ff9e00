package models

// TriageStatus is the dispatcher's discriminator: the outcome class of
// interpreting one completion response.
type TriageStatus string

const (
	StatusFollowUpNeeded      TriageStatus = "follow_up_needed"
	StatusPharmacyRecommended TriageStatus = "pharmacy_recommended"
	StatusDoctorAdvised       TriageStatus = "doctor_advised"
	StatusEmergency           TriageStatus = "emergency"
)

// UrgencyLevel grades how quickly the user should act on the advice.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// TriageIntent is a coarse classification of what the user is asking for,
// derived from the triage status.
type TriageIntent string

const (
	IntentSymptomDiagnosis TriageIntent = "symptom_diagnosis"
	IntentEmergency        TriageIntent = "emergency"
	IntentGeneralHealth    TriageIntent = "general_health"
	IntentFollowUp         TriageIntent = "follow_up"
)

// Diagnosis is the structured outcome of interpreting one raw completion
// response. It is produced once per user turn by the interpreter and
// consumed exactly once by the dispatcher.
type Diagnosis struct {
	Status            TriageStatus `json:"status"`
	Intent            TriageIntent `json:"intent"`
	Urgency           UrgencyLevel `json:"urgency"`
	Confidence        float64      `json:"confidence"`
	ResponseText      string       `json:"response_text"`
	FollowUpQuestions []string     `json:"follow_up_questions,omitempty"`
}

// IntentForStatus maps a triage status to the matching intent class.
func IntentForStatus(status TriageStatus) TriageIntent {
	switch status {
	case StatusEmergency:
		return IntentEmergency
	case StatusPharmacyRecommended:
		return IntentSymptomDiagnosis
	case StatusDoctorAdvised:
		return IntentGeneralHealth
	default:
		return IntentFollowUp
	}
}
