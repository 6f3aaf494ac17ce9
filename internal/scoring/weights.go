// Package scoring holds the score ledger: the weighted counters kept on each
// member profile and the primitives that move them.
package scoring

import (
	"fmt"

	"github.com/dccc/clubhouse/internal/models"
	"github.com/dccc/clubhouse/pkg/config"
)

// Weights are the points credited per like and per suggestion
type Weights struct {
	Like       int64 `json:"like"`
	Suggestion int64 `json:"suggestion"`
}

// DefaultWeights returns the standard weights
func DefaultWeights() Weights {
	return Weights{Like: 2, Suggestion: 1}
}

// WeightsFromConfig reads the weights from configuration
func WeightsFromConfig(cfg *config.ScoringConfig) Weights {
	return Weights{Like: cfg.LikeWeight, Suggestion: cfg.SuggestionWeight}
}

// Validate rejects non-positive weights
func (w Weights) Validate() error {
	if w.Like <= 0 || w.Suggestion <= 0 {
		return fmt.Errorf("weights must be positive, got like=%d suggestion=%d", w.Like, w.Suggestion)
	}
	return nil
}

// Score computes the leaderboard score for the given counts
func (w Weights) Score(likes, suggestions int64) int64 {
	return likes*w.Like + suggestions*w.Suggestion
}

// LikeDelta is the ledger change for delta likes
func (w Weights) LikeDelta(delta int64) models.Ledger {
	return models.Ledger{TotalLikes: delta, LeaderboardScore: delta * w.Like}
}

// SuggestionDelta is the ledger change for delta suggestions
func (w Weights) SuggestionDelta(delta int64) models.Ledger {
	return models.Ledger{TotalSuggestions: delta, LeaderboardScore: delta * w.Suggestion}
}

// SubmissionDelta is the ledger change for delta submissions
func SubmissionDelta(delta int64) models.Ledger {
	return models.Ledger{SubmissionsCount: delta}
}

// Reversal is the ledger change that removes one show carrying the given
// credited likes and suggestions
func (w Weights) Reversal(likes, suggestions int64) models.Ledger {
	return models.Ledger{
		SubmissionsCount: -1,
		TotalLikes:       -likes,
		TotalSuggestions: -suggestions,
		LeaderboardScore: -w.Score(likes, suggestions),
	}
}

// Add sums two ledger changes
func Add(a, b models.Ledger) models.Ledger {
	return models.Ledger{
		SubmissionsCount: a.SubmissionsCount + b.SubmissionsCount,
		TotalLikes:       a.TotalLikes + b.TotalLikes,
		TotalSuggestions: a.TotalSuggestions + b.TotalSuggestions,
		LeaderboardScore: a.LeaderboardScore + b.LeaderboardScore,
	}
}
