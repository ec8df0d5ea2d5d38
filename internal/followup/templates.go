package followup

import (
	"strings"

	"github.com/kaizendigital/leadflow/internal/leads"
)

// TemplateSet generates follow-up message bodies. Selection is deterministic:
// the same (timing, hasWebsite, mainGoal) always produces the same text.
type TemplateSet struct {
	Agency  string
	BaseURL string
}

// NewTemplateSet creates a template set with sane defaults.
func NewTemplateSet(agency, baseURL string) *TemplateSet {
	if agency == "" {
		agency = "Kaizen Digital"
	}
	if baseURL == "" {
		baseURL = "https://kaizen-digital.com"
	}
	return &TemplateSet{Agency: agency, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Body builds the personalized follow-up text for a tier.
func (t *TemplateSet) Body(q leads.QualificationAnswers, timing Timing) string {
	var b strings.Builder

	b.WriteString("Hi there! Thanks for your interest in ")
	b.WriteString(t.Agency)
	b.WriteString(". ")

	switch timing {
	case TimingImmediate:
		b.WriteString("I wanted to follow up on your website inquiry. ")
	case Timing24h:
		b.WriteString("Just checking in about your website project. ")
	case Timing3d:
		b.WriteString("I hope you're doing well! I wanted to touch base about your website inquiry from a few days ago. ")
	default:
		b.WriteString("I noticed you were interested in getting a website. Our team still has availability this month. ")
	}

	goal := ""
	if q.MainGoal != nil {
		goal = *q.MainGoal
	}

	if q.HasWebsite != nil && !*q.HasWebsite {
		b.WriteString("As you mentioned, you don't currently have a website. ")
		switch goal {
		case leads.GoalMoreCustomers:
			b.WriteString("A new website could significantly increase your customer reach. ")
		case leads.GoalSellOnline:
			b.WriteString("Our e-commerce solutions can help you start selling online quickly. ")
		case leads.GoalBrandAwareness:
			b.WriteString("We can help establish your online presence with a professional brand image. ")
		}
	} else if q.HasWebsite != nil {
		b.WriteString("Since you already have a website, we can focus on improving its performance. ")
		switch goal {
		case leads.GoalMoreCustomers:
			b.WriteString("Our optimization can help increase traffic and conversions. ")
		case leads.GoalSellOnline:
			b.WriteString("We can enhance your e-commerce capabilities for better results. ")
		}
	}

	switch timing {
	case TimingImmediate, Timing24h:
		b.WriteString("Would you like to schedule a quick call to discuss your needs in more detail? Or you can view our packages at ")
		b.WriteString(t.BaseURL)
		b.WriteString("/pricing")
	default:
		b.WriteString("We're offering a 15% discount this week. You can claim it at ")
		b.WriteString(t.BaseURL)
		b.WriteString("/special-offer")
	}

	return b.String()
}
