package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// RecordExpense materializes the obligations implied by a freshly
// created expense: one per non-payer participant with a positive share,
// each immediately backed by a pending settlement owed to the payer.
// The settlements are written as one transactional unit; a failed write
// leaves nothing behind.
func (l *Ledger) RecordExpense(ctx context.Context, exp *models.Expense, shares []models.ExpenseSplit) ([]Obligation, error) {
	unlock := l.expenseMu.lock(exp.ID.String())
	defer unlock()

	var obligations []Obligation
	err := l.settlements.Transact(ctx, func(store SettlementStore) error {
		for _, share := range shares {
			if share.UserID == exp.PaidBy || !share.OwedAmount.IsPositive() {
				continue
			}

			expenseID := exp.ID
			s := models.Settlement{
				GroupID:   exp.GroupID,
				PaidBy:    share.UserID,
				PaidTo:    exp.PaidBy,
				Amount:    share.OwedAmount,
				Currency:  exp.Currency,
				ExpenseID: &expenseID,
				Status:    models.SettlementPending,
			}
			if err := store.Create(ctx, &s); err != nil {
				return err
			}

			obligations = append(obligations, Obligation{
				DebtorID:   share.UserID,
				CreditorID: exp.PaidBy,
				Amount:     share.OwedAmount,
				Currency:   exp.Currency,
				GroupID:    exp.GroupID,
				ExpenseIDs: []uuid.UUID{exp.ID},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obligations, nil
}

// ReviseExpense recomputes the obligation set after an expense edit.
// Pending derived settlements are adjusted, removed or added to match
// the new shares. A revision that would alter a debt already paid
// (a completed derived settlement) fails with ConflictError and
// mutates nothing: a paid debt cannot be retroactively undone.
func (l *Ledger) ReviseExpense(ctx context.Context, exp *models.Expense, newShares []models.ExpenseSplit) ([]Obligation, error) {
	unlock := l.expenseMu.lock(exp.ID.String())
	defer unlock()

	derived, err := l.settlements.ListByExpense(ctx, exp.ID)
	if err != nil {
		return nil, err
	}

	desired := make(map[uuid.UUID]decimal.Decimal, len(newShares))
	for _, share := range newShares {
		if share.UserID == exp.PaidBy || !share.OwedAmount.IsPositive() {
			continue
		}
		desired[share.UserID] = share.OwedAmount
	}

	// Validate against completed settlements before touching anything.
	for i := range derived {
		s := &derived[i]
		if s.Status != models.SettlementCompleted {
			continue
		}
		want, ok := desired[s.PaidBy]
		if !ok {
			return nil, &ConflictError{
				ExpenseID:    exp.ID,
				SettlementID: s.ID,
				Reason:       fmt.Sprintf("participant %s already settled %s %s for this expense", s.PaidBy, s.Currency, s.Amount),
			}
		}
		if !want.Equal(s.Amount) {
			return nil, &ConflictError{
				ExpenseID:    exp.ID,
				SettlementID: s.ID,
				Reason:       fmt.Sprintf("share of %s changed but %s %s was already paid", s.PaidBy, s.Currency, s.Amount),
			}
		}
		// Debt already discharged; nothing new is owed.
		delete(desired, s.PaidBy)
	}

	// Apply the adjustments as one transactional unit so a failed write
	// cannot leave the obligation set half revised.
	err = l.settlements.Transact(ctx, func(store SettlementStore) error {
		for i := range derived {
			s := &derived[i]
			if s.Status != models.SettlementPending {
				continue
			}
			want, ok := desired[s.PaidBy]
			switch {
			case !ok:
				s.Status = models.SettlementCancelled
				s.Note = "expense revised"
				if err := store.Update(ctx, s); err != nil {
					return err
				}
			case !want.Equal(s.Amount):
				s.Amount = want
				if err := store.Update(ctx, s); err != nil {
					return err
				}
				delete(desired, s.PaidBy)
			default:
				delete(desired, s.PaidBy)
			}
		}

		// Participants added by the revision.
		for debtor, amount := range desired {
			expenseID := exp.ID
			s := models.Settlement{
				GroupID:   exp.GroupID,
				PaidBy:    debtor,
				PaidTo:    exp.PaidBy,
				Amount:    amount,
				Currency:  exp.Currency,
				ExpenseID: &expenseID,
				Status:    models.SettlementPending,
			}
			if err := store.Create(ctx, &s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return l.openObligations(ctx, exp)
}

// RemoveExpense reacts to a soft delete: pending derived settlements are
// cancelled so no orphaned debt survives its source, while completed
// ones stay untouched as historical fact (they surface in the
// reconciliation report instead).
func (l *Ledger) RemoveExpense(ctx context.Context, exp *models.Expense, actorID uuid.UUID) error {
	unlock := l.expenseMu.lock(exp.ID.String())
	defer unlock()

	derived, err := l.settlements.ListByExpense(ctx, exp.ID)
	if err != nil {
		return err
	}

	var cancelled []models.Settlement
	err = l.settlements.Transact(ctx, func(store SettlementStore) error {
		for i := range derived {
			s := &derived[i]
			if s.Status != models.SettlementPending {
				continue
			}
			s.Status = models.SettlementCancelled
			s.Note = "expense deleted"
			if err := store.Update(ctx, s); err != nil {
				return err
			}
			cancelled = append(cancelled, *s)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, s := range cancelled {
		l.audit(ctx, ActivityEvent{
			Type:        models.ActivitySettlementCancelled,
			GroupID:     s.GroupID,
			ActorID:     actorID,
			ReferenceID: s.ID,
			Amount:      s.Amount,
			Currency:    s.Currency,
			Description: "Cancelled settlement: expense deleted",
		})
	}
	return nil
}

// openObligations rebuilds the obligation view from the expense's
// currently pending settlements.
func (l *Ledger) openObligations(ctx context.Context, exp *models.Expense) ([]Obligation, error) {
	derived, err := l.settlements.ListByExpense(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	var obligations []Obligation
	for _, s := range derived {
		if s.Status != models.SettlementPending {
			continue
		}
		obligations = append(obligations, Obligation{
			DebtorID:   s.PaidBy,
			CreditorID: s.PaidTo,
			Amount:     s.Amount,
			Currency:   s.Currency,
			GroupID:    s.GroupID,
			ExpenseIDs: []uuid.UUID{exp.ID},
		})
	}
	return obligations, nil
}

// ReconciliationReport lists completed settlements whose originating
// expense has since been soft-deleted. The money moved, the source is
// gone; someone has to look at these by hand.
func (l *Ledger) ReconciliationReport(ctx context.Context, groupID uuid.UUID) ([]models.Settlement, error) {
	completed, err := l.settlements.ListByGroup(ctx, groupID, models.SettlementCompleted)
	if err != nil {
		return nil, err
	}

	var orphaned []models.Settlement
	for _, s := range completed {
		if s.ExpenseID == nil {
			continue
		}
		exp, err := l.expenses.Get(ctx, *s.ExpenseID)
		if err != nil {
			return nil, err
		}
		if exp.IsDeleted {
			orphaned = append(orphaned, s)
		}
	}
	return orphaned, nil
}
