package models

import "time"

// ArchivedMember is a frozen leaderboard row
type ArchivedMember struct {
	MemberID         string `json:"uid"`
	Name             string `json:"name"`
	Batch            string `json:"batch"`
	Role             Role   `json:"role"`
	LeaderboardScore int64  `json:"leaderboardScore"`
}

// LeaderboardArchive is an immutable snapshot of one scoring period.
// ID is the period as YYYY-MM.
type LeaderboardArchive struct {
	ID        string           `gorm:"primaryKey;type:varchar(7);column:id" json:"id"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime;column:created_at" json:"createdAt"`
	Entries   []ArchivedMember `gorm:"serializer:json;type:text;not null;column:entries" json:"users"`
}

// TableName specifies the table name for LeaderboardArchive
func (LeaderboardArchive) TableName() string {
	return "leaderboard_archives"
}
