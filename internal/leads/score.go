package leads

// Score maps qualification answers to a 0-100 lead score. It is pure: the
// same answers always produce the same score, and unanswered questions
// contribute nothing.
//
// The weights sum to 120 for a maximal lead, so the cap at 100 is part of the
// contract, not a safety net.
func Score(q QualificationAnswers) int {
	score := 0

	// No website means a higher chance they need one.
	if q.HasWebsite != nil {
		if *q.HasWebsite {
			score += 20
		} else {
			score += 30
		}
	}

	if q.MainGoal != nil {
		switch *q.MainGoal {
		case GoalSellOnline:
			score += 30
		case GoalMoreCustomers:
			score += 25
		case GoalBrandAwareness:
			score += 20
		default:
			score += 15
		}
	}

	// Sooner is better.
	if q.Timeline != nil {
		switch *q.Timeline {
		case TimelineASAP:
			score += 40
		case TimelineOneMonth:
			score += 30
		case TimelineThreeMonths:
			score += 20
		case TimelineExploring:
			score += 10
		}
	}

	if q.Qualified {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return score
}
