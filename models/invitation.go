package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation is addressed to an email or phone rather than a user ID,
// so it can be sent to people who have not signed up yet. Any pending
// invitations are resolved when the address registers.
type Invitation struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID        `gorm:"type:uuid;index" json:"group_id"`
	Group     Group            `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	InvitedBy uuid.UUID        `gorm:"type:uuid" json:"invited_by"`
	Inviter   User             `gorm:"foreignKey:InvitedBy" json:"inviter,omitempty"`
	Email     string           `gorm:"size:255" json:"email,omitempty"`
	Phone     string           `gorm:"size:20" json:"phone,omitempty"`
	Status    InvitationStatus `gorm:"default:pending;size:20" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InviteRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}
