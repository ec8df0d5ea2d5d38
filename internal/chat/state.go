package chat

import (
	"strings"

	"github.com/kaizendigital/leadflow/internal/leads"
)

// State is a node in the qualification flow.
type State string

const (
	StateStart             State = "start"
	StateAskedHasWebsite   State = "asked_has_website"
	StateAskedMainGoal     State = "asked_main_goal"
	StateAskedTimeline     State = "asked_timeline"
	StateAskedIndustry     State = "asked_industry"
	StateQualified         State = "qualified"
	StateNurture           State = "nurture"
	StatePricing           State = "pricing"
	StateConsultation      State = "consultation"
	StateContactCollection State = "contact_collection"
	StateTerminal          State = "terminal"
)

// ContactDetails is contact info parsed out of a visitor message.
type ContactDetails struct {
	Email string
	Phone string
}

// StepResult is the outcome of feeding one visitor input to the machine.
// Patch is nil when the input changed no qualification answer.
type StepResult struct {
	Next         State
	Prompt       string
	QuickReplies []string
	Patch        *leads.QualificationAnswers
	Contact      *ContactDetails
}

// Machine is the qualification flow as a pure transition function. It holds
// no per-visitor state; callers keep the current State in the session and the
// answers on the lead record.
type Machine struct {
	classifier Classifier
	agency     string
}

// NewMachine creates a machine. A nil classifier falls back to keyword matching.
func NewMachine(classifier Classifier, agency string) *Machine {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if agency == "" {
		agency = "Kaizen Digital"
	}
	return &Machine{classifier: classifier, agency: agency}
}

const (
	promptHasWebsite = "Do you currently have a website?"
	promptMainGoal   = "What's the main goal for your online presence?"
	promptTimeline   = "When are you looking to get started?"
	promptIndustry   = "What industry are you in?"
)

var (
	hasWebsiteReplies = []string{"Yes", "No"}
	mainGoalReplies   = []string{leads.GoalMoreCustomers, leads.GoalSellOnline, leads.GoalBrandAwareness, "Something else"}
	timelineReplies   = []string{leads.TimelineASAP, leads.TimelineOneMonth, leads.TimelineThreeMonths, leads.TimelineExploring}
	industryReplies   = []string{leads.IndustryEcommerce, leads.IndustryProfServices, leads.IndustryHealthcare, leads.IndustryRealEstate, leads.IndustryOther}
	menuReplies       = []string{"See pricing", "Book a consultation", "Leave my contact details"}
)

// Submit advances the flow by one visitor input. q is the lead's current
// answers; the machine reads them but never mutates them, returning changes as
// a patch. Inputs that are invalid for the current state leave the state
// unchanged and return a clarifying prompt.
func (m *Machine) Submit(state State, input string, q leads.QualificationAnswers) StepResult {
	input = strings.TrimSpace(input)

	switch state {
	case StateStart, "":
		return StepResult{
			Next:         StateAskedHasWebsite,
			Prompt:       "Hi! I'm the " + m.agency + " assistant. A couple of quick questions so we can point you in the right direction. " + promptHasWebsite,
			QuickReplies: hasWebsiteReplies,
		}

	case StateAskedHasWebsite:
		switch strings.ToLower(input) {
		case "yes", "y":
			return m.askMainGoal(boolPatch(true))
		case "no", "n":
			return m.askMainGoal(boolPatch(false))
		}
		return clarify(state, promptHasWebsite, hasWebsiteReplies)

	case StateAskedMainGoal:
		if goal, ok := matchOption(input, mainGoalReplies); ok {
			patch := &leads.QualificationAnswers{MainGoal: &goal}
			return StepResult{
				Next:         StateAskedTimeline,
				Prompt:       "Got it. " + promptTimeline,
				QuickReplies: timelineReplies,
				Patch:        patch,
			}
		}
		return clarify(state, promptMainGoal, mainGoalReplies)

	case StateAskedTimeline:
		if timeline, ok := matchOption(input, timelineReplies); ok {
			patch := &leads.QualificationAnswers{Timeline: &timeline}
			return StepResult{
				Next:         StateAskedIndustry,
				Prompt:       "Almost done. " + promptIndustry,
				QuickReplies: industryReplies,
				Patch:        patch,
			}
		}
		return clarify(state, promptTimeline, timelineReplies)

	case StateAskedIndustry:
		if industry, ok := matchOption(input, industryReplies); ok {
			patch := &leads.QualificationAnswers{Industry: &industry}
			merged := q
			merged.Merge(*patch)
			if merged.Qualified {
				return StepResult{
					Next:         StateQualified,
					Prompt:       "Great news: you're exactly the kind of project we love taking on. Want to see pricing, book a consultation, or leave your contact details?",
					QuickReplies: menuReplies,
					Patch:        patch,
				}
			}
			return StepResult{
				Next:         StateNurture,
				Prompt:       "Thanks! No rush at all. When you're ready, you can see pricing, book a consultation, or leave your contact details and we'll keep in touch.",
				QuickReplies: menuReplies,
				Patch:        patch,
			}
		}
		return clarify(state, promptIndustry, industryReplies)

	case StateQualified, StateNurture:
		return m.routeIntent(state, input, q)

	case StatePricing:
		return StepResult{
			Next:   StateTerminal,
			Prompt: "Thanks for stopping by! The team will be in touch if you left your details, and our pricing page is always open.",
		}

	case StateConsultation:
		return StepResult{
			Next:   StateTerminal,
			Prompt: "Perfect. Pick any slot on the booking page and we'll take it from there. Anything else, just start a new chat.",
		}

	case StateContactCollection:
		if contact := parseContact(input); contact != nil {
			return StepResult{
				Next:    StateTerminal,
				Prompt:  "Got it, thanks! Someone from " + m.agency + " will reach out shortly.",
				Contact: contact,
			}
		}
		return clarify(state, "I didn't catch that. Could you share an email address or phone number?", nil)

	case StateTerminal:
		return StepResult{
			Next:   StateTerminal,
			Prompt: "This conversation has wrapped up. Refresh the page to start a new one.",
		}
	}

	// Unknown state in a stored session; restart the flow rather than erroring.
	return m.Submit(StateStart, input, q)
}

func (m *Machine) askMainGoal(patch *leads.QualificationAnswers) StepResult {
	return StepResult{
		Next:         StateAskedMainGoal,
		Prompt:       "Thanks! " + promptMainGoal,
		QuickReplies: mainGoalReplies,
		Patch:        patch,
	}
}

// routeIntent handles the free-text menu after qualification. Unknown input
// with no recorded answers re-enters the question flow; otherwise it re-offers
// the menu.
func (m *Machine) routeIntent(state State, input string, q leads.QualificationAnswers) StepResult {
	switch m.classifier.Classify(input) {
	case IntentPricing:
		return StepResult{
			Next:   StatePricing,
			Prompt: "Our packages start with a one-page site and go up to full e-commerce builds. Full details are on the pricing page: check it out and tell me if anything fits.",
		}
	case IntentConsultation:
		return StepResult{
			Next:   StateConsultation,
			Prompt: "Happy to set that up. Grab a time that suits you on the booking page and we'll confirm by email.",
		}
	case IntentContact:
		return StepResult{
			Next:   StateContactCollection,
			Prompt: "Sure — what's the best email address or phone number to reach you on?",
		}
	}

	if !q.Answered() {
		return StepResult{
			Next:         StateAskedHasWebsite,
			Prompt:       "Let's start with the basics. " + promptHasWebsite,
			QuickReplies: hasWebsiteReplies,
		}
	}
	return clarify(state, "I can show you pricing, book a consultation, or take your contact details. Which would you like?", menuReplies)
}

func clarify(state State, prompt string, replies []string) StepResult {
	return StepResult{Next: state, Prompt: prompt, QuickReplies: replies}
}

func boolPatch(v bool) *leads.QualificationAnswers {
	return &leads.QualificationAnswers{HasWebsite: &v}
}

// matchOption resolves input against the quick-reply options, case-insensitively.
func matchOption(input string, options []string) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(input, opt) {
			return opt, true
		}
	}
	return "", false
}

// parseContact extracts an email or phone number from free text. Email wins
// when both could apply.
func parseContact(input string) *ContactDetails {
	for _, field := range strings.Fields(input) {
		if at := strings.Index(field, "@"); at > 0 && at < len(field)-1 && strings.Contains(field[at:], ".") {
			return &ContactDetails{Email: strings.Trim(field, ".,;")}
		}
	}

	digits := 0
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits >= 7 {
		var b strings.Builder
		for _, r := range input {
			if r >= '0' && r <= '9' || r == '+' {
				b.WriteRune(r)
			}
		}
		return &ContactDetails{Phone: b.String()}
	}
	return nil
}
