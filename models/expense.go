package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Split policies supported for an expense.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitExact      SplitType = "exact"
	SplitPercentage SplitType = "percentage"
)

type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID       `gorm:"type:uuid;index" json:"group_id"`
	Group       Group           `gorm:"foreignKey:GroupID" json:"-"`
	PaidBy      uuid.UUID       `gorm:"type:uuid" json:"paid_by"`
	Payer       User            `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	Description string          `gorm:"not null;size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string          `gorm:"default:USD;size:3" json:"currency"`
	Category    string          `gorm:"size:50" json:"category"` // food, transport, rent, utilities, entertainment, other
	SplitType   SplitType       `gorm:"not null;size:20" json:"split_type"`
	ReceiptURL  string          `json:"receipt_url,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate time.Time       `gorm:"type:date;default:CURRENT_DATE" json:"expense_date"`
	Splits      []ExpenseSplit  `gorm:"foreignKey:ExpenseID" json:"splits,omitempty"`
	RiskScore   float64         `gorm:"default:0" json:"risk_score"`
	Flagged     bool            `gorm:"default:false" json:"flagged"`
	IsDeleted   bool            `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExpenseSplit is one participant's resolved share of an expense.
type ExpenseSplit struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID  uuid.UUID       `gorm:"type:uuid;index" json:"expense_id"`
	UserID     uuid.UUID       `gorm:"type:uuid" json:"user_id"`
	User       User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OwedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"owed_amount"`
	Percentage decimal.Decimal `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (es *ExpenseSplit) BeforeCreate(tx *gorm.DB) error {
	if es.ID == uuid.Nil {
		es.ID = uuid.New()
	}
	return nil
}

// SplitInput is a declared share on an incoming request: an exact amount
// for "exact", a percentage for "percentage", ignored for "equal".
type SplitInput struct {
	UserID string          `json:"user_id" binding:"required"`
	Value  decimal.Decimal `json:"value"`
}

// Request structs
type CreateExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	SplitType   SplitType       `json:"split_type" binding:"required,oneof=equal exact percentage"`
	Notes       string          `json:"notes"`
	ExpenseDate string          `json:"expense_date"` // YYYY-MM-DD
	ReceiptURL  string          `json:"receipt_url"`
	Splits      []SplitInput    `json:"splits"` // required for exact and percentage
}

type UpdateExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	SplitType   SplitType       `json:"split_type"`
	Notes       string          `json:"notes"`
	Splits      []SplitInput    `json:"splits"`
}

// Response
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	GroupID     uuid.UUID       `json:"group_id"`
	PaidBy      uuid.UUID       `json:"paid_by"`
	PayerName   string          `json:"payer_name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	SplitType   SplitType       `json:"split_type"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate time.Time       `json:"expense_date"`
	Splits      []SplitResponse `json:"splits"`
	RiskScore   float64         `json:"risk_score"`
	Flagged     bool            `json:"flagged"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SplitResponse struct {
	UserID     uuid.UUID       `json:"user_id"`
	UserName   string          `json:"user_name"`
	OwedAmount decimal.Decimal `json:"owed_amount"`
}
