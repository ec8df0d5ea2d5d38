package chat

import "strings"

// Intent is a coarse classification of free-text visitor input.
type Intent string

const (
	IntentPricing      Intent = "pricing"
	IntentConsultation Intent = "consultation"
	IntentContact      Intent = "contact"
	IntentUnknown      Intent = "unknown"
)

// Classifier maps free text to an intent.
type Classifier interface {
	Classify(text string) Intent
}

// KeywordClassifier matches on keyword substrings. Order matters: pricing
// beats consultation beats contact when several keywords appear.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(text string) Intent {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "pricing", "price", "cost", "quote", "how much"):
		return IntentPricing
	case containsAny(t, "consult", "book", "call", "meeting", "appointment"):
		return IntentConsultation
	case containsAny(t, "contact", "email", "phone", "reach", "details"):
		return IntentContact
	}
	return IntentUnknown
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
