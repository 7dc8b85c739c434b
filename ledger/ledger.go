// Package ledger is the settlement-netting core: it decomposes expenses
// into payment obligations, aggregates per-currency net balances,
// simplifies debts into a minimal transfer plan, and drives the
// settlement lifecycle. It talks to the outside world (database, group
// membership, activity feed, anomaly scorer) only through the
// interfaces declared here.
package ledger

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// Obligation is a derived, not-yet-settled debt implied by one expense:
// the debtor owes the creditor the amount in the given currency.
type Obligation struct {
	DebtorID   uuid.UUID       `json:"debtor_id"`
	CreditorID uuid.UUID       `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	GroupID    uuid.UUID       `json:"group_id"`
	ExpenseIDs []uuid.UUID     `json:"expense_ids"`
}

// ActivityEvent is one audit record. Every event kind carries this
// fixed shape; sinks must never influence the outcome of the mutation
// that produced the event.
type ActivityEvent struct {
	Type        models.ActivityType
	GroupID     uuid.UUID
	ActorID     uuid.UUID
	ReferenceID uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// SettlementStore persists settlements.
type SettlementStore interface {
	Create(ctx context.Context, s *models.Settlement) error
	Get(ctx context.Context, id uuid.UUID) (*models.Settlement, error)
	Update(ctx context.Context, s *models.Settlement) error
	// ListByGroup returns the group's settlements, optionally filtered
	// by status (empty status means all).
	ListByGroup(ctx context.Context, groupID uuid.UUID, status models.SettlementStatus) ([]models.Settlement, error)
	// ListByExpense returns the settlements derived from one expense.
	ListByExpense(ctx context.Context, expenseID uuid.UUID) ([]models.Settlement, error)
	// Transact runs fn against a store whose writes commit or roll
	// back as one unit; on error nothing fn wrote survives.
	Transact(ctx context.Context, fn func(SettlementStore) error) error
}

// ExpenseStore gives the core read access to the expense stream. The
// core never writes expenses; handlers own that.
type ExpenseStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	// CountSimilar counts non-deleted expenses in the group with the
	// same description, amount and currency created since the cutoff.
	CountSimilar(ctx context.Context, groupID uuid.UUID, description string, amount decimal.Decimal, currency string, since time.Time) (int64, error)
	// TotalSpentBy sums all amounts the user has ever paid.
	TotalSpentBy(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// MembershipLookup validates participants and resolves group currency.
type MembershipLookup interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	Members(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	Currency(ctx context.Context, groupID uuid.UUID) (string, error)
}

// ActivitySink appends audit events. Fire-and-forget: errors are logged
// and swallowed by the core.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// Ledger wires the core components to their collaborators.
type Ledger struct {
	settlements SettlementStore
	expenses    ExpenseStore
	groups      MembershipLookup
	activity    ActivitySink
	scorer      Scorer

	settlementMu keyedMutex // serializes transitions per settlement id
	expenseMu    keyedMutex // serializes obligation rebuilds per expense id
	groupMu      keyedMutex // serializes settle-up per group id
}

func New(settlements SettlementStore, expenses ExpenseStore, groups MembershipLookup, activity ActivitySink, scorer Scorer) *Ledger {
	return &Ledger{
		settlements: settlements,
		expenses:    expenses,
		groups:      groups,
		activity:    activity,
		scorer:      scorer,
	}
}

// audit appends an event to the activity sink. Sink failures must never
// roll back the transition that emitted the event, so they are only
// logged here.
func (l *Ledger) audit(ctx context.Context, ev ActivityEvent) {
	if l.activity == nil {
		return
	}
	if err := l.activity.Record(ctx, ev); err != nil {
		log.Printf("⚠️  activity sink failed for %s: %v", ev.Type, err)
	}
}
