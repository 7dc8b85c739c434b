package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// MarkPaidOptions carries the optional payment details recorded when a
// payer marks a settlement paid.
type MarkPaidOptions struct {
	Method string
	Note   string
	Proof  string
}

// MarkPaid is the only transition to completed. The actor must be the
// payer and the settlement must still be pending; concurrent calls are
// serialized per settlement, so exactly one caller wins and the rest see
// StateError.
func (l *Ledger) MarkPaid(ctx context.Context, settlementID, actorID uuid.UUID, opts MarkPaidOptions) (*models.Settlement, error) {
	unlock := l.settlementMu.lock(settlementID.String())
	defer unlock()

	s, err := l.settlements.Get(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if s.PaidBy != actorID {
		return nil, &AuthorizationError{Reason: "only the payer can mark a settlement as paid"}
	}
	if s.Status != models.SettlementPending {
		return nil, &StateError{SettlementID: s.ID, Status: s.Status, Reason: "only pending settlements can be marked paid"}
	}

	now := time.Now()
	s.Status = models.SettlementCompleted
	s.SettledAt = &now
	s.ConfirmedByPayer = true
	if opts.Method != "" {
		s.Method = opts.Method
	}
	if opts.Note != "" {
		s.Note = opts.Note
	}
	if opts.Proof != "" {
		s.Proof = opts.Proof
	}
	if err := l.settlements.Update(ctx, s); err != nil {
		return nil, err
	}

	l.audit(ctx, ActivityEvent{
		Type:        models.ActivitySettlementCompleted,
		GroupID:     s.GroupID,
		ActorID:     actorID,
		ReferenceID: s.ID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Description: "Marked settlement as paid",
	})
	return s, nil
}

// ConfirmReceipt records the payee's acknowledgement. It flips the
// confirmation bit only; the status is driven solely by MarkPaid.
func (l *Ledger) ConfirmReceipt(ctx context.Context, settlementID, actorID uuid.UUID) (*models.Settlement, error) {
	unlock := l.settlementMu.lock(settlementID.String())
	defer unlock()

	s, err := l.settlements.Get(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if s.PaidTo != actorID {
		return nil, &AuthorizationError{Reason: "only the payee can confirm a settlement"}
	}

	s.ConfirmedByPayee = true
	if err := l.settlements.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Cancel voids a pending settlement. Either party may cancel; terminal
// settlements are immutable.
func (l *Ledger) Cancel(ctx context.Context, settlementID, actorID uuid.UUID) error {
	unlock := l.settlementMu.lock(settlementID.String())
	defer unlock()

	s, err := l.settlements.Get(ctx, settlementID)
	if err != nil {
		return err
	}
	if s.PaidBy != actorID && s.PaidTo != actorID {
		return &AuthorizationError{Reason: "only the payer or payee can cancel a settlement"}
	}
	if s.Status != models.SettlementPending {
		return &StateError{SettlementID: s.ID, Status: s.Status, Reason: "only pending settlements can be cancelled"}
	}

	s.Status = models.SettlementCancelled
	if err := l.settlements.Update(ctx, s); err != nil {
		return err
	}

	l.audit(ctx, ActivityEvent{
		Type:        models.ActivitySettlementCancelled,
		GroupID:     s.GroupID,
		ActorID:     actorID,
		ReferenceID: s.ID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Description: "Cancelled settlement",
	})
	return nil
}

// Request creates a pending settlement not tied to any expense: a
// manual debt claim from the payee asking the payer to settle up.
func (l *Ledger) Request(ctx context.Context, payerID, payeeID uuid.UUID, amount decimal.Decimal, currency string, groupID uuid.UUID, note string) (*models.Settlement, error) {
	if !amount.IsPositive() {
		return nil, validationf("settlement amount must be greater than 0, got %s", amount)
	}
	if payerID == payeeID {
		return nil, validationf("payer and payee must be different members")
	}

	for _, userID := range []uuid.UUID{payerID, payeeID} {
		ok, err := l.groups.IsMember(ctx, groupID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, validationf("user %s is not a member of the group", userID)
		}
	}

	if currency == "" {
		var err error
		currency, err = l.groups.Currency(ctx, groupID)
		if err != nil {
			return nil, err
		}
	}

	s := models.Settlement{
		GroupID:  groupID,
		PaidBy:   payerID,
		PaidTo:   payeeID,
		Amount:   amount.Round(2),
		Currency: currency,
		Status:   models.SettlementPending,
		Note:     note,
	}
	if err := l.settlements.Create(ctx, &s); err != nil {
		return nil, err
	}

	l.audit(ctx, ActivityEvent{
		Type:        models.ActivitySettlementRequested,
		GroupID:     groupID,
		ActorID:     payeeID,
		ReferenceID: s.ID,
		Amount:      s.Amount,
		Currency:    s.Currency,
		Description: fmt.Sprintf("Requested settlement of %s %s", s.Currency, s.Amount),
	})
	return &s, nil
}
