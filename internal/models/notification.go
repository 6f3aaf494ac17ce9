package models

import "time"

// Notification is an in-app message for one member
type Notification struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	RecipientID string    `gorm:"type:varchar(128);not null;index;column:recipient_id" json:"userId"`
	Title       string    `gorm:"type:varchar(200);not null;column:title" json:"title"`
	Body        string    `gorm:"type:text;not null;column:body" json:"body"`
	Link        string    `gorm:"type:varchar(255);not null;default:'';column:link" json:"link,omitempty"`
	Read        bool      `gorm:"not null;default:false;column:read" json:"read"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// All returns every model managed by the schema, in migration order
func All() []interface{} {
	return []interface{}{
		&Member{},
		&Show{},
		&ShowLike{},
		&Suggestion{},
		&PromotionRequest{},
		&LeaderboardArchive{},
		&Notification{},
	}
}
