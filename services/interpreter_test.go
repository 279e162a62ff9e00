package services

import (
	"testing"

	"github.com/mjozefiak/polcare/models"

	"github.com/stretchr/testify/assert"
)

func TestInterpreter_StructuredEmergency(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := `Here is my assessment: {"analysis":{"urgency_level":"high","recommended_action":"emergency"},"response_text":"Your symptoms sound serious."} Stay safe.`

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusEmergency, diagnosis.Status)
	assert.Equal(t, models.UrgencyHigh, diagnosis.Urgency)
	assert.Equal(t, "Your symptoms sound serious.", diagnosis.ResponseText)
	assert.NotContains(t, diagnosis.ResponseText, `"recommended_action"`, "raw JSON must never reach the user")
	assert.Equal(t, models.IntentEmergency, diagnosis.Intent)
	assert.Equal(t, DiagnosisConfidence, diagnosis.Confidence)
}

func TestInterpreter_StructuredPharmacyRecommendation(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := `{"analysis":{"urgency_level":"medium","recommended_action":"pharmacy_drugs"},"response_text":"Try rest and fluids."}`

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusPharmacyRecommended, diagnosis.Status)
	assert.Equal(t, models.UrgencyMedium, diagnosis.Urgency)
	assert.Equal(t, "Try rest and fluids.", diagnosis.ResponseText)
}

func TestInterpreter_StructuredResponseTextAliases(t *testing.T) {
	interpreter := NewResponseInterpreter()

	t.Run("responseText spelling", func(t *testing.T) {
		diagnosis := interpreter.Interpret(`{"responseText":"Alias text."}`)
		assert.Equal(t, "Alias text.", diagnosis.ResponseText)
	})

	t.Run("nested analysis.response_text", func(t *testing.T) {
		diagnosis := interpreter.Interpret(`{"analysis":{"response_text":"Nested text.","recommended_action":"see_doctor"}}`)
		assert.Equal(t, "Nested text.", diagnosis.ResponseText)
		assert.Equal(t, models.StatusDoctorAdvised, diagnosis.Status)
	})

	t.Run("response spelling", func(t *testing.T) {
		diagnosis := interpreter.Interpret(`{"response":"Plain response."}`)
		assert.Equal(t, "Plain response.", diagnosis.ResponseText)
	})
}

func TestInterpreter_StructuredWithoutResponseTextIsSanitized(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := `{"analysis":{"urgency_level":"low","recommended_action":"ask_follow_up"}}`

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusFollowUpNeeded, diagnosis.Status)
	assert.NotEqual(t, raw, diagnosis.ResponseText)
	assert.NotContains(t, diagnosis.ResponseText, "{", "structured payload must not be echoed")
	assert.NotEmpty(t, diagnosis.ResponseText)
}

func TestInterpreter_UnknownActionAsksFollowUp(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := `{"analysis":{"recommended_action":"teleport_to_hospital"},"response_text":"Hmm."}`

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusFollowUpNeeded, diagnosis.Status)
	assert.Equal(t, models.UrgencyLow, diagnosis.Urgency, "missing urgency defaults to low")
}

func TestInterpreter_MalformedJSONFallsBackToKeywords(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := `Assessment: {"analysis": pharmacy medication broken}`

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusPharmacyRecommended, diagnosis.Status)
	assert.NotContains(t, diagnosis.ResponseText, "{", "unparsable structure must not be echoed")
	assert.NotEmpty(t, diagnosis.ResponseText)
}

func TestInterpreter_KeywordEmergencyWithoutJSON(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := "Please call emergency services, this is urgent, dial 112"

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusEmergency, diagnosis.Status)
	assert.Equal(t, models.UrgencyHigh, diagnosis.Urgency)
	assert.Equal(t, raw, diagnosis.ResponseText, "plain prose is shown verbatim")
}

func TestInterpreter_KeywordDoctorOverridesPharmacy(t *testing.T) {
	interpreter := NewResponseInterpreter()
	// Both pharmacy and doctor markers are present; the later rule wins.
	raw := "You could try a pharmacy, but honestly you should see a doctor."

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusDoctorAdvised, diagnosis.Status)
}

func TestInterpreter_NoMarkersDefaults(t *testing.T) {
	interpreter := NewResponseInterpreter()
	raw := "Thanks for sharing that with me."

	diagnosis := interpreter.Interpret(raw)

	assert.Equal(t, models.StatusFollowUpNeeded, diagnosis.Status)
	assert.Equal(t, models.UrgencyLow, diagnosis.Urgency)
	assert.Equal(t, []string{
		"Are you experiencing any other symptoms?",
		"Have you tried any treatments already?",
	}, diagnosis.FollowUpQuestions, "generic defaults when nothing matched")
	assert.Equal(t, models.IntentFollowUp, diagnosis.Intent)
}

func TestInterpreter_FollowUpSynthesis(t *testing.T) {
	interpreter := NewResponseInterpreter()

	t.Run("pain yields pain-scale question", func(t *testing.T) {
		diagnosis := interpreter.Interpret("The pain in your back could have many causes.")
		assert.Contains(t, diagnosis.FollowUpQuestions, "On a scale of 1-10, how would you rate your pain level?")
	})

	t.Run("duration yields duration question", func(t *testing.T) {
		diagnosis := interpreter.Interpret("The duration of symptoms matters here.")
		assert.Contains(t, diagnosis.FollowUpQuestions, "How long have you been experiencing these symptoms?")
	})

	t.Run("structured questions are kept as-is", func(t *testing.T) {
		diagnosis := interpreter.Interpret(`{"response_text":"Okay.","follow_up_questions":["Does it itch?"]}`)
		assert.Equal(t, []string{"Does it itch?"}, diagnosis.FollowUpQuestions)
	})
}

func TestFirstBalancedObject(t *testing.T) {
	t.Run("finds first balanced span", func(t *testing.T) {
		span, found := firstBalancedObject(`prefix {"a":{"b":1}} suffix {"c":2}`)
		assert.True(t, found)
		assert.Equal(t, `{"a":{"b":1}}`, span)
	})

	t.Run("braces inside strings are skipped", func(t *testing.T) {
		span, found := firstBalancedObject(`{"a":"}{"}`)
		assert.True(t, found)
		assert.Equal(t, `{"a":"}{"}`, span)
	})

	t.Run("unterminated object", func(t *testing.T) {
		_, found := firstBalancedObject(`{"a": 1`)
		assert.False(t, found)
	})

	t.Run("no object at all", func(t *testing.T) {
		_, found := firstBalancedObject("plain prose")
		assert.False(t, found)
	})
}
