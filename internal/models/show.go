package models

import "time"

// ShowKind is the medium of a show
type ShowKind string

const (
	ShowKindText  ShowKind = "Text"
	ShowKindImage ShowKind = "Image"
	ShowKindVideo ShowKind = "Video"
)

// Category is the topical province of a show
type Category string

const (
	CategoryCultural  Category = "Cultural"
	CategoryTechnical Category = "Technical"
)

// Show is a member submission. Author fields are a snapshot taken at
// submission time and are never re-joined against the member.
type Show struct {
	ID          string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	Title       string    `gorm:"type:varchar(200);not null;column:title" json:"title"`
	Body        string    `gorm:"type:text;not null;default:'';column:body" json:"body"`
	MediaURL    string    `gorm:"type:varchar(1024);not null;default:'';column:media_url" json:"mediaUrl,omitempty"`
	Kind        ShowKind  `gorm:"type:varchar(8);not null;column:kind" json:"kind"`
	Category    Category  `gorm:"type:varchar(16);not null;index;column:category" json:"category"`
	AuthorID    string    `gorm:"type:varchar(128);not null;index;column:author_id" json:"authorId"`
	AuthorName  string    `gorm:"type:varchar(100);not null;column:author_name" json:"authorName"`
	AuthorBatch string    `gorm:"type:varchar(32);not null;default:'';index;column:author_batch" json:"authorBatch"`
	AuthorRole  Role      `gorm:"type:smallint;not null;index;column:author_role" json:"authorRole"`
	Approved    bool      `gorm:"not null;default:false;index;column:approved" json:"approved"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index;column:created_at" json:"createdAt"`

	// Engagement, filled on read
	LikeCount       int64        `gorm:"-" json:"likeCount"`
	SuggestionCount int64        `gorm:"-" json:"suggestionCount"`
	Likes           []string     `gorm:"-" json:"likes,omitempty"`
	Suggestions     []Suggestion `gorm:"-" json:"suggestions,omitempty"`
}

// TableName specifies the table name for Show
func (Show) TableName() string {
	return "shows"
}

// ShowLike records one member's like on a show
type ShowLike struct {
	ShowID    string    `gorm:"primaryKey;type:varchar(36);column:show_id"`
	MemberID  string    `gorm:"primaryKey;type:varchar(128);index;column:member_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;column:created_at"`
}

// TableName specifies the table name for ShowLike
func (ShowLike) TableName() string {
	return "show_likes"
}

// Suggestion is an append-only comment on a show
type Suggestion struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ShowID         string    `gorm:"type:varchar(36);not null;index;column:show_id" json:"showId"`
	CommenterID    string    `gorm:"type:varchar(128);not null;column:commenter_id" json:"commenterId"`
	CommenterName  string    `gorm:"type:varchar(100);not null;column:commenter_name" json:"commenterName"`
	CommenterBatch string    `gorm:"type:varchar(32);not null;default:'';column:commenter_batch" json:"commenterBatch"`
	Body           string    `gorm:"type:text;not null;column:body" json:"text"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Suggestion
func (Suggestion) TableName() string {
	return "suggestions"
}
