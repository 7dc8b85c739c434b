package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ActivityType enumerates the audit event kinds. Every kind carries the
// same fixed payload columns below; there is no free-form metadata blob.
type ActivityType string

const (
	ActivityExpenseAdded        ActivityType = "expense_added"
	ActivityExpenseUpdated      ActivityType = "expense_updated"
	ActivityExpenseDeleted      ActivityType = "expense_deleted"
	ActivitySettlementRequested ActivityType = "settlement_requested"
	ActivitySettlementCompleted ActivityType = "settlement_completed"
	ActivitySettlementCancelled ActivityType = "settlement_cancelled"
	ActivityGroupSettled        ActivityType = "group_settled"
	ActivityMemberJoined        ActivityType = "member_joined"
	ActivityMemberLeft          ActivityType = "member_left"
)

type Activity struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID       `gorm:"type:uuid;index" json:"group_id"`
	GroupName   string          `gorm:"-" json:"group_name,omitempty"`
	UserID      uuid.UUID       `gorm:"type:uuid" json:"user_id"`
	User        User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type        ActivityType    `gorm:"not null;size:30" json:"type"`
	ReferenceID uuid.UUID       `gorm:"type:uuid" json:"reference_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"amount,omitempty"`
	Currency    string          `gorm:"size:3" json:"currency,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
