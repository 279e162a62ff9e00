package services

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/mjozefiak/polcare/models"
)

// DiagnosisConfidence is the fixed confidence reported on every diagnosis.
// The interpreter is best-effort heuristic parsing, not a scoring model.
const DiagnosisConfidence = 0.8

const (
	// Shown when the payload parsed but carried no usable response text.
	// The raw structured payload must never reach the transcript.
	sanitizedResponseText = "I've analyzed your symptoms and I'm here to help you understand your condition better."
	// Shown when a structured payload was present but could not be parsed.
	unparsableResponseText = "I've analyzed your symptoms. Let me help you understand your condition better."
)

// ResponseInterpreter converts a raw completion string into a structured
// diagnosis. It never fails outward: malformed structure degrades to
// keyword heuristics, missing fields degrade to defaults.
type ResponseInterpreter interface {
	Interpret(raw string) *models.Diagnosis
}

type responseInterpreter struct{}

// NewResponseInterpreter creates a new instance of ResponseInterpreter.
func NewResponseInterpreter() ResponseInterpreter {
	return &responseInterpreter{}
}

// structuredAnalysis mirrors the nested "analysis" record the completion
// provider is asked to produce.
type structuredAnalysis struct {
	ResponseText      string `json:"response_text"`
	UrgencyLevel      string `json:"urgency_level"`
	RecommendedAction string `json:"recommended_action"`
}

// structuredPayload mirrors the JSON object the provider embeds in its
// free-text answer. All fields are optional; aliases cover the response
// text spellings observed in practice.
type structuredPayload struct {
	ResponseText      string              `json:"response_text"`
	ResponseTextAlias string              `json:"responseText"`
	Response          string              `json:"response"`
	Analysis          *structuredAnalysis `json:"analysis"`
	FollowUpQuestions []string            `json:"follow_up_questions"`
}

// Interpret parses the raw completion text into a diagnosis, preferring the
// embedded structured payload and falling back to keyword heuristics when
// no structure can be extracted.
func (i *responseInterpreter) Interpret(raw string) *models.Diagnosis {
	diagnosis := &models.Diagnosis{
		Status:       models.StatusFollowUpNeeded,
		Urgency:      models.UrgencyLow,
		Confidence:   DiagnosisConfidence,
		ResponseText: raw,
	}

	payload, ok := extractStructured(raw)
	if ok {
		applyStructured(diagnosis, payload, raw)
	} else {
		applyKeywordFallback(diagnosis, raw)
	}

	if len(diagnosis.FollowUpQuestions) == 0 {
		diagnosis.FollowUpQuestions = synthesizeFollowUps(raw)
	}
	diagnosis.Intent = models.IntentForStatus(diagnosis.Status)
	return diagnosis
}

// extractStructured locates the first balanced {...} span in the raw text
// and parses it. The boolean result makes the fallback path an explicit
// branch instead of a caught error.
func extractStructured(raw string) (*structuredPayload, bool) {
	span, found := firstBalancedObject(raw)
	if !found {
		return nil, false
	}
	var payload structuredPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		log.Printf("WARN: [Interpreter] Failed to parse embedded JSON payload, using keyword fallback: %v", err)
		return nil, false
	}
	return &payload, true
}

// firstBalancedObject returns the first brace-balanced object span in the
// text, skipping braces inside JSON string literals.
func firstBalancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// applyStructured maps the parsed payload onto the diagnosis.
func applyStructured(d *models.Diagnosis, payload *structuredPayload, raw string) {
	text := payload.ResponseText
	if text == "" {
		text = payload.ResponseTextAlias
	}
	if text == "" && payload.Analysis != nil {
		text = payload.Analysis.ResponseText
	}
	if text == "" {
		text = payload.Response
	}
	// Never echo the raw payload back at the user.
	if text == "" || text == raw {
		text = sanitizedResponseText
	}
	d.ResponseText = text

	if payload.Analysis != nil {
		switch models.UrgencyLevel(payload.Analysis.UrgencyLevel) {
		case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
			d.Urgency = models.UrgencyLevel(payload.Analysis.UrgencyLevel)
		}
		d.Status = statusForAction(payload.Analysis.RecommendedAction)
	}

	if len(payload.FollowUpQuestions) > 0 {
		d.FollowUpQuestions = payload.FollowUpQuestions
	}
}

// statusForAction maps the provider's recommended_action onto a triage
// status. Unknown or absent actions ask for a follow-up.
func statusForAction(action string) models.TriageStatus {
	switch action {
	case "emergency":
		return models.StatusEmergency
	case "pharmacy_drugs":
		return models.StatusPharmacyRecommended
	case "see_doctor":
		return models.StatusDoctorAdvised
	default:
		return models.StatusFollowUpNeeded
	}
}

// applyKeywordFallback scans the content for urgency and triage markers.
// Checks run as independent sequential assignments; a later rule overwrites
// an earlier match.
func applyKeywordFallback(d *models.Diagnosis, raw string) {
	// A brace span that failed to parse must not be echoed at the user;
	// plain prose without structure is safe to show verbatim.
	if strings.Contains(raw, "{") && strings.Contains(raw, "}") {
		d.ResponseText = unparsableResponseText
	}

	lower := strings.ToLower(raw)

	if containsAny(lower, "emergency", "urgent", "immediately") {
		d.Urgency = models.UrgencyHigh
	}
	if containsAny(lower, "soon", "recommend", "consult") {
		d.Urgency = models.UrgencyMedium
	}

	if containsAny(lower, "emergency", "112", "call") {
		d.Status = models.StatusEmergency
	}
	if containsAny(lower, "pharmacy", "over-the-counter", "medication") {
		d.Status = models.StatusPharmacyRecommended
	}
	if containsAny(lower, "doctor", "physician", "medical") {
		d.Status = models.StatusDoctorAdvised
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// synthesizeFollowUps derives follow-up questions from the content when the
// payload carried none.
func synthesizeFollowUps(raw string) []string {
	lower := strings.ToLower(raw)
	var questions []string
	if strings.Contains(lower, "pain") {
		questions = append(questions, "On a scale of 1-10, how would you rate your pain level?")
	}
	if strings.Contains(lower, "duration") {
		questions = append(questions, "How long have you been experiencing these symptoms?")
	}
	if len(questions) == 0 {
		questions = append(questions,
			"Are you experiencing any other symptoms?",
			"Have you tried any treatments already?",
		)
	}
	return questions
}
