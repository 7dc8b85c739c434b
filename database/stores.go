package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/models"
)

// gorm-backed implementations of the ledger collaborator interfaces.
// Each store picks up the ambient transaction from the context (see
// Transaction/Conn), so a handler-scoped transaction covers the
// ledger's writes too.

type settlementStore struct {
	tx *gorm.DB // set inside Transact; nil means use the context
}

func Settlements() ledger.SettlementStore { return settlementStore{} }

func (s settlementStore) db(ctx context.Context) *gorm.DB {
	if s.tx != nil {
		return s.tx.WithContext(ctx)
	}
	return Conn(ctx).WithContext(ctx)
}

func (s settlementStore) Create(ctx context.Context, m *models.Settlement) error {
	return s.db(ctx).Create(m).Error
}

func (s settlementStore) Get(ctx context.Context, id uuid.UUID) (*models.Settlement, error) {
	var m models.Settlement
	err := s.db(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "settlement", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s settlementStore) Update(ctx context.Context, m *models.Settlement) error {
	return s.db(ctx).Save(m).Error
}

func (s settlementStore) ListByGroup(ctx context.Context, groupID uuid.UUID, status models.SettlementStatus) ([]models.Settlement, error) {
	query := s.db(ctx).Where("group_id = ?", groupID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var settlements []models.Settlement
	err := query.Order("created_at DESC").Find(&settlements).Error
	return settlements, err
}

func (s settlementStore) ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.db(ctx).Where("expense_id = ?", expenseID).Find(&settlements).Error
	return settlements, err
}

func (s settlementStore) Transact(ctx context.Context, fn func(ledger.SettlementStore) error) error {
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(settlementStore{tx: tx})
	})
}

type expenseStore struct{}

func Expenses() ledger.ExpenseStore { return expenseStore{} }

func (expenseStore) Get(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var e models.Expense
	err := Conn(ctx).WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &ledger.NotFoundError{Kind: "expense", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (expenseStore) CountSimilar(ctx context.Context, groupID uuid.UUID, description string, amount decimal.Decimal, currency string, since time.Time) (int64, error) {
	var count int64
	err := Conn(ctx).WithContext(ctx).Model(&models.Expense{}).
		Where("group_id = ? AND is_deleted = false", groupID).
		Where("description = ? AND amount = ? AND currency = ?", description, amount, currency).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (expenseStore) TotalSpentBy(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := Conn(ctx).WithContext(ctx).Model(&models.Expense{}).
		Where("paid_by = ? AND is_deleted = false", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

type membershipStore struct{}

func Memberships() ledger.MembershipLookup { return membershipStore{} }

func (membershipStore) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := Conn(ctx).WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (membershipStore) Members(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := Conn(ctx).WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (membershipStore) Currency(ctx context.Context, groupID uuid.UUID) (string, error) {
	var group models.Group
	err := Conn(ctx).WithContext(ctx).First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", &ledger.NotFoundError{Kind: "group", ID: groupID}
	}
	if err != nil {
		return "", err
	}
	return group.Currency, nil
}

type activityLog struct{}

func ActivityLog() ledger.ActivitySink { return activityLog{} }

func (activityLog) Record(ctx context.Context, ev ledger.ActivityEvent) error {
	return Conn(ctx).WithContext(ctx).Create(&models.Activity{
		GroupID:     ev.GroupID,
		UserID:      ev.ActorID,
		Type:        ev.Type,
		ReferenceID: ev.ReferenceID,
		Amount:      ev.Amount,
		Currency:    ev.Currency,
		Description: ev.Description,
	}).Error
}
