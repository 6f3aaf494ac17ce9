package models

import "time"

// PromotionStatus is the lifecycle state of a promotion request
type PromotionStatus string

const (
	PromotionPending  PromotionStatus = "pending"
	PromotionApproved PromotionStatus = "approved"
	PromotionRejected PromotionStatus = "rejected"
)

// PromotionRequest is a member's request to move up one role. A member
// holds at most one pending request, enforced by a partial unique index.
type PromotionRequest struct {
	ID            string          `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	MemberID      string          `gorm:"type:varchar(128);not null;index:idx_promotion_one_pending,unique,where:status = 'pending';column:member_id" json:"userId"`
	MemberName    string          `gorm:"type:varchar(100);not null;column:member_name" json:"userName"`
	MemberBatch   string          `gorm:"type:varchar(32);not null;default:'';column:member_batch" json:"userBatch"`
	CurrentRole   Role            `gorm:"type:smallint;not null;column:from_role" json:"currentRole"`
	RequestedRole Role            `gorm:"type:smallint;not null;column:to_role" json:"requestedRole"`
	Status        PromotionStatus `gorm:"type:varchar(16);not null;default:'pending';index;column:status" json:"status"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for PromotionRequest
func (PromotionRequest) TableName() string {
	return "promotion_requests"
}
