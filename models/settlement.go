package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settlement lifecycle. Pending settlements are the outstanding debts;
// completed and cancelled are terminal and immutable.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
	SettlementCancelled SettlementStatus = "cancelled"
)

// Payment methods accepted on mark-paid.
const (
	MethodCash         = "cash"
	MethodBankTransfer = "bank_transfer"
	MethodPaypal       = "paypal"
	MethodVenmo        = "venmo"
	MethodOther        = "other"
)

type Settlement struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;index:idx_settlements_group_status" json:"group_id"`
	// PaidBy is the debtor: the member who owes and eventually pays.
	PaidBy uuid.UUID `gorm:"type:uuid;index" json:"paid_by"`
	Payer  User      `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	// PaidTo is the creditor being repaid.
	PaidTo   uuid.UUID       `gorm:"type:uuid;index" json:"paid_to"`
	Payee    User            `gorm:"foreignKey:PaidTo" json:"payee,omitempty"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency string          `gorm:"default:USD;size:3" json:"currency"`
	// ExpenseID links a settlement back to the expense that produced it.
	// Nil for manual settlement requests and settle-up batch transfers.
	ExpenseID        *uuid.UUID       `gorm:"type:uuid;index" json:"expense_id,omitempty"`
	Status           SettlementStatus `gorm:"default:pending;size:20;index:idx_settlements_group_status" json:"status"`
	Method           string           `gorm:"default:cash;size:20" json:"method"`
	Note             string           `gorm:"size:200" json:"note,omitempty"`
	Proof            string           `json:"proof,omitempty"` // URL to proof of payment
	ConfirmedByPayer bool             `gorm:"default:false" json:"confirmed_by_payer"`
	ConfirmedByPayee bool             `gorm:"default:false" json:"confirmed_by_payee"`
	SettledAt        *time.Time       `json:"settled_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the settlement can no longer change.
func (s *Settlement) Terminal() bool {
	return s.Status == SettlementCompleted || s.Status == SettlementCancelled
}

// Request structs
type RequestSettlementRequest struct {
	PayerID  string          `json:"payer_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
	Note     string          `json:"note"`
}

type MarkPaidRequest struct {
	Method string `json:"method"`
	Note   string `json:"note"`
	Proof  string `json:"proof"`
}
