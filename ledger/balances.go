package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// NetBalances reduces the group's pending settlements into one signed
// net amount per member for a single currency. Completed settlements are
// history and cancelled ones never happened; neither contributes.
//
// The fold is a running sum, so the result does not depend on the order
// of the settlements, and every debit has a matching credit: the values
// always sum to zero.
func NetBalances(members []uuid.UUID, settlements []models.Settlement, currency string) map[uuid.UUID]decimal.Decimal {
	balances := make(map[uuid.UUID]decimal.Decimal, len(members))
	for _, m := range members {
		balances[m] = decimal.Zero
	}

	for _, s := range settlements {
		if s.Status != models.SettlementPending || s.Currency != currency {
			continue
		}
		balances[s.PaidBy] = balances[s.PaidBy].Sub(s.Amount)
		balances[s.PaidTo] = balances[s.PaidTo].Add(s.Amount)
	}
	return balances
}

// HasOpenDebts reports whether the member is party to any pending
// settlement in the group, in any currency. Balances are per currency;
// a member can be square in the group's canonical currency and still
// owe in another.
func (l *Ledger) HasOpenDebts(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	pending, err := l.settlements.ListByGroup(ctx, groupID, models.SettlementPending)
	if err != nil {
		return false, err
	}
	for _, s := range pending {
		if s.PaidBy == userID || s.PaidTo == userID {
			return true, nil
		}
	}
	return false, nil
}

// GetNetBalances loads the group's pending settlements and aggregates
// them for the given currency. Empty currency means the group's
// canonical currency.
func (l *Ledger) GetNetBalances(ctx context.Context, groupID uuid.UUID, currency string) (map[uuid.UUID]decimal.Decimal, error) {
	if currency == "" {
		var err error
		currency, err = l.groups.Currency(ctx, groupID)
		if err != nil {
			return nil, err
		}
	}

	members, err := l.groups.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	pending, err := l.settlements.ListByGroup(ctx, groupID, models.SettlementPending)
	if err != nil {
		return nil, err
	}
	return NetBalances(members, pending, currency), nil
}
