package scoring

import "github.com/dccc/clubhouse/internal/models"

// Badge is an achievement unlocked by ledger thresholds
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	earned func(l models.Ledger) bool
}

// Badges lists every badge in display order
var Badges = []Badge{
	{
		ID:          "first_show",
		Name:        "Curtain Raiser",
		Description: "Awarded for submitting your first show.",
		earned:      func(l models.Ledger) bool { return l.SubmissionsCount >= 1 },
	},
	{
		ID:          "prolific_creator",
		Name:        "Prolific Creator",
		Description: "Awarded for submitting 10 or more shows.",
		earned:      func(l models.Ledger) bool { return l.SubmissionsCount >= 10 },
	},
	{
		ID:          "helpful_critic",
		Name:        "Helpful Critic",
		Description: "Awarded for making 25 or more suggestions.",
		earned:      func(l models.Ledger) bool { return l.TotalSuggestions >= 25 },
	},
	{
		ID:          "fan_favorite",
		Name:        "Fan Favorite",
		Description: "Awarded for receiving 100 or more likes across all shows.",
		earned:      func(l models.Ledger) bool { return l.TotalLikes >= 100 },
	},
}

// EarnedBadges returns the badges the ledger qualifies for
func EarnedBadges(l models.Ledger) []Badge {
	out := make([]Badge, 0, len(Badges))
	for _, b := range Badges {
		if b.earned(l) {
			out = append(out, b)
		}
	}
	return out
}
