package models

import "time"

// Member is a club member's profile and score ledger
type Member struct {
	ID        string    `gorm:"primaryKey;type:varchar(128);column:id" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;column:name" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;default:'';column:email" json:"email"`
	Phone     string    `gorm:"type:varchar(32);not null;default:'';column:phone" json:"phone"`
	Batch     string    `gorm:"type:varchar(32);not null;default:'';index;column:batch" json:"batch"`
	Role      Role      `gorm:"type:smallint;not null;default:0;index;column:role" json:"role"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;column:created_at" json:"createdAt"`

	// Ledger
	SubmissionsCount int64 `gorm:"not null;default:0;column:submissions_count" json:"submissionsCount"`
	TotalLikes       int64 `gorm:"not null;default:0;column:total_likes" json:"totalLikes"`
	TotalSuggestions int64 `gorm:"not null;default:0;column:total_suggestions" json:"totalSuggestions"`
	LeaderboardScore int64 `gorm:"not null;default:0;index;column:leaderboard_score" json:"leaderboardScore"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// Ledger is the set of score counters held on a member profile
type Ledger struct {
	SubmissionsCount int64 `json:"submissionsCount"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSuggestions int64 `json:"totalSuggestions"`
	LeaderboardScore int64 `json:"leaderboardScore"`
}

// Ledger returns a copy of the member's counters
func (m *Member) Ledger() Ledger {
	return Ledger{
		SubmissionsCount: m.SubmissionsCount,
		TotalLikes:       m.TotalLikes,
		TotalSuggestions: m.TotalSuggestions,
		LeaderboardScore: m.LeaderboardScore,
	}
}
