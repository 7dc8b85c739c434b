package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// Transfer is one suggested payment from the debt-simplification plan.
type Transfer struct {
	From     uuid.UUID       `json:"from"`
	To       uuid.UUID       `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Balances below half a minor unit are treated as settled; greedy
// matching can otherwise loop on residual dust.
var zeroEpsilon = decimal.New(5, -3) // 0.005

// PlanTransfers runs the minimum-cash-flow algorithm over net balances
// and returns the fewest transfers that reach the same net positions.
//
// Greedy matching: the largest creditor is repeatedly paired with the
// largest debtor and the smaller of the two balances moves between them.
// The plan has at most len(balances)-1 entries, its amounts sum to the
// sum of the positive balances, and the output is deterministic (ties
// are broken by member id).
func PlanTransfers(balances map[uuid.UUID]decimal.Decimal, currency string) []Transfer {
	type position struct {
		userID uuid.UUID
		amount decimal.Decimal // always positive
	}

	var creditors, debtors []position
	for userID, amount := range balances {
		if amount.GreaterThan(zeroEpsilon) {
			creditors = append(creditors, position{userID, amount})
		} else if amount.Neg().GreaterThan(zeroEpsilon) {
			debtors = append(debtors, position{userID, amount.Neg()})
		}
	}

	byAmountDesc := func(ps []position) func(int, int) bool {
		return func(a, b int) bool {
			if c := ps[a].amount.Cmp(ps[b].amount); c != 0 {
				return c > 0
			}
			return ps[a].userID.String() < ps[b].userID.String()
		}
	}
	sort.Slice(creditors, byAmountDesc(creditors))
	sort.Slice(debtors, byAmountDesc(debtors))

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount.LessThan(amount) {
			amount = creditors[j].amount
		}

		plan = append(plan, Transfer{
			From:     debtors[i].userID,
			To:       creditors[j].userID,
			Amount:   amount,
			Currency: currency,
		})

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThanOrEqual(zeroEpsilon) {
			i++
		}
		if creditors[j].amount.LessThanOrEqual(zeroEpsilon) {
			j++
		}
	}

	return plan
}

// PlanSettlement aggregates the group's pending settlements and returns
// the minimal transfer list for the currency (empty currency means the
// group's canonical one). Advisory only: nothing is persisted.
func (l *Ledger) PlanSettlement(ctx context.Context, groupID uuid.UUID, currency string) ([]Transfer, error) {
	if currency == "" {
		var err error
		currency, err = l.groups.Currency(ctx, groupID)
		if err != nil {
			return nil, err
		}
	}
	balances, err := l.GetNetBalances(ctx, groupID, currency)
	if err != nil {
		return nil, err
	}
	return PlanTransfers(balances, currency), nil
}

// SettleGroup accepts the current plan as a batch: every suggested
// transfer becomes a completed settlement, and the pending per-expense
// settlements it supersedes are folded away so they drop out of future
// netting. Returns the created settlements.
func (l *Ledger) SettleGroup(ctx context.Context, groupID uuid.UUID, currency string, actorID uuid.UUID) ([]models.Settlement, error) {
	unlock := l.groupMu.lock(groupID.String())
	defer unlock()

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

	balances := NetBalances(members, pending, currency)
	plan := PlanTransfers(balances, currency)

	// The fold and the batch commit together: the superseded pending
	// settlements are cancelled and the plan's transfers created in one
	// transactional unit.
	now := time.Now()
	created := make([]models.Settlement, 0, len(plan))
	err = l.settlements.Transact(ctx, func(store SettlementStore) error {
		for i := range pending {
			s := &pending[i]
			if s.Currency != currency {
				continue
			}
			s.Status = models.SettlementCancelled
			s.Note = "superseded by group settle-up"
			if err := store.Update(ctx, s); err != nil {
				return err
			}
		}

		for _, t := range plan {
			s := models.Settlement{
				GroupID:          groupID,
				PaidBy:           t.From,
				PaidTo:           t.To,
				Amount:           t.Amount,
				Currency:         t.Currency,
				Status:           models.SettlementCompleted,
				Method:           models.MethodOther,
				Note:             "group settle-up",
				ConfirmedByPayer: true,
				SettledAt:        &now,
			}
			if err := store.Create(ctx, &s); err != nil {
				return err
			}
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.audit(ctx, ActivityEvent{
		Type:        models.ActivityGroupSettled,
		GroupID:     groupID,
		ActorID:     actorID,
		Currency:    currency,
		Description: fmt.Sprintf("Settled group with %d transfers", len(created)),
	})
	return created, nil
}
