package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

// In-memory fakes for the collaborator interfaces.

type memSettlements struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.Settlement

	// createErr is returned from Create once createsUntilErr successful
	// creates have gone through.
	createErr       error
	createsUntilErr int
}

func newMemSettlements() *memSettlements {
	return &memSettlements{items: make(map[uuid.UUID]models.Settlement)}
}

func (m *memSettlements) Create(_ context.Context, s *models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		if m.createsUntilErr == 0 {
			return m.createErr
		}
		m.createsUntilErr--
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.items[s.ID] = *s
	return nil
}

func (m *memSettlements) Get(_ context.Context, id uuid.UUID) (*models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{Kind: "settlement", ID: id}
	}
	return &s, nil
}

func (m *memSettlements) Update(_ context.Context, s *models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return &NotFoundError{Kind: "settlement", ID: s.ID}
	}
	m.items[s.ID] = *s
	return nil
}

func (m *memSettlements) ListByGroup(_ context.Context, groupID uuid.UUID, status models.SettlementStatus) ([]models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Settlement
	for _, s := range m.items {
		if s.GroupID != groupID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Transact snapshots the store and restores it when fn fails, matching
// the commit-or-nothing contract of the real store.
func (m *memSettlements) Transact(_ context.Context, fn func(SettlementStore) error) error {
	m.mu.Lock()
	snapshot := make(map[uuid.UUID]models.Settlement, len(m.items))
	for id, s := range m.items {
		snapshot[id] = s
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.items = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memSettlements) ListByExpense(_ context.Context, expenseID uuid.UUID) ([]models.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Settlement
	for _, s := range m.items {
		if s.ExpenseID != nil && *s.ExpenseID == expenseID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memExpenses struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.Expense
}

func newMemExpenses() *memExpenses {
	return &memExpenses{items: make(map[uuid.UUID]models.Expense)}
}

func (m *memExpenses) put(e models.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = e
}

func (m *memExpenses) Get(_ context.Context, id uuid.UUID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{Kind: "expense", ID: id}
	}
	return &e, nil
}

func (m *memExpenses) CountSimilar(_ context.Context, groupID uuid.UUID, description string, amount decimal.Decimal, currency string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.items {
		if e.GroupID == groupID && !e.IsDeleted &&
			e.Description == description && e.Amount.Equal(amount) &&
			e.Currency == currency && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memExpenses) TotalSpentBy(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, e := range m.items {
		if e.PaidBy == userID && !e.IsDeleted {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

type memGroups struct {
	members  map[uuid.UUID][]uuid.UUID
	currency map[uuid.UUID]string
}

func newMemGroups() *memGroups {
	return &memGroups{
		members:  make(map[uuid.UUID][]uuid.UUID),
		currency: make(map[uuid.UUID]string),
	}
}

func (m *memGroups) IsMember(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, id := range m.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memGroups) Members(_ context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	return m.members[groupID], nil
}

func (m *memGroups) Currency(_ context.Context, groupID uuid.UUID) (string, error) {
	if c, ok := m.currency[groupID]; ok {
		return c, nil
	}
	return "USD", nil
}

type memActivity struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error // returned from Record when set
}

func (m *memActivity) Record(_ context.Context, ev ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memActivity) byType(t models.ActivityType) []ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ActivityEvent
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	ledger      *Ledger
	settlements *memSettlements
	expenses    *memExpenses
	groups      *memGroups
	activity    *memActivity
}

func newTestEnv() *testEnv {
	settlements := newMemSettlements()
	expenses := newMemExpenses()
	groups := newMemGroups()
	activity := &memActivity{}
	scorer := NewRuleScorer(expenses, decimal.NewFromInt(1000))
	return &testEnv{
		ledger:      New(settlements, expenses, groups, activity, scorer),
		settlements: settlements,
		expenses:    expenses,
		groups:      groups,
		activity:    activity,
	}
}

func (e *testEnv) addGroup(currency string, members ...uuid.UUID) uuid.UUID {
	groupID := uuid.New()
	e.groups.members[groupID] = members
	e.groups.currency[groupID] = currency
	return groupID
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
