package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathambahekar/expense-mananger/models"
)

func pendingSettlement(groupID, from, to uuid.UUID, amount, currency string) models.Settlement {
	return models.Settlement{
		ID:       uuid.New(),
		GroupID:  groupID,
		PaidBy:   from,
		PaidTo:   to,
		Amount:   dec(amount),
		Currency: currency,
		Status:   models.SettlementPending,
	}
}

func TestNetBalancesScenario(t *testing.T) {
	// Expense of 90 split equally among three, A paying: B and C each
	// owe A 30, so the net positions are A +60, B -30, C -30.
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	settlements := []models.Settlement{
		pendingSettlement(groupID, b, a, "30", "USD"),
		pendingSettlement(groupID, c, a, "30", "USD"),
	}

	balances := NetBalances([]uuid.UUID{a, b, c}, settlements, "USD")
	assert.True(t, balances[a].Equal(dec("60")), "A = %s", balances[a])
	assert.True(t, balances[b].Equal(dec("-30")), "B = %s", balances[b])
	assert.True(t, balances[c].Equal(dec("-30")), "C = %s", balances[c])
}

func TestNetBalancesConservation(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	settlements := []models.Settlement{
		pendingSettlement(groupID, a, b, "12.34", "USD"),
		pendingSettlement(groupID, b, c, "56.78", "USD"),
		pendingSettlement(groupID, c, d, "9.99", "USD"),
		pendingSettlement(groupID, d, a, "0.01", "USD"),
	}

	balances := NetBalances([]uuid.UUID{a, b, c, d}, settlements, "USD")
	total := decimal.Zero
	for _, amount := range balances {
		total = total.Add(amount)
	}
	assert.True(t, total.IsZero(), "net balances must sum to zero, got %s", total)
}

func TestNetBalancesIgnoresTerminalAndForeignCurrency(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	groupID := uuid.New()

	completed := pendingSettlement(groupID, a, b, "100", "USD")
	completed.Status = models.SettlementCompleted
	cancelled := pendingSettlement(groupID, a, b, "50", "USD")
	cancelled.Status = models.SettlementCancelled
	euros := pendingSettlement(groupID, a, b, "25", "EUR")

	balances := NetBalances([]uuid.UUID{a, b}, []models.Settlement{
		completed, cancelled, euros,
		pendingSettlement(groupID, a, b, "10", "USD"),
	}, "USD")

	assert.True(t, balances[a].Equal(dec("-10")), "only the pending USD settlement counts, got %s", balances[a])
	assert.True(t, balances[b].Equal(dec("10")))
}

func TestNetBalancesOrderIndependentAndIdempotent(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()
	settlements := []models.Settlement{
		pendingSettlement(groupID, a, b, "20", "USD"),
		pendingSettlement(groupID, b, c, "35", "USD"),
		pendingSettlement(groupID, c, a, "5", "USD"),
	}
	members := []uuid.UUID{a, b, c}

	first := NetBalances(members, settlements, "USD")

	reversed := []models.Settlement{settlements[2], settlements[1], settlements[0]}
	second := NetBalances(members, reversed, "USD")

	for _, m := range members {
		assert.True(t, first[m].Equal(second[m]), "order changed the balance of %s", m)
	}

	// Same inputs twice, same result.
	third := NetBalances(members, settlements, "USD")
	for _, m := range members {
		assert.True(t, first[m].Equal(third[m]))
	}
}

func TestHasOpenDebtsSeesEveryCurrency(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	groupID := env.addGroup("USD", a, b)

	s := pendingSettlement(groupID, a, b, "15", "EUR")
	require.NoError(t, env.settlements.Create(ctx, &s))

	// The EUR debt never shows in the group's canonical USD balances,
	// but it still binds both parties.
	for _, member := range []uuid.UUID{a, b} {
		open, err := env.ledger.HasOpenDebts(ctx, groupID, member)
		require.NoError(t, err)
		assert.True(t, open, "member %s has a pending EUR settlement", member)
	}

	outsider := uuid.New()
	open, err := env.ledger.HasOpenDebts(ctx, groupID, outsider)
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, env.ledger.Cancel(ctx, s.ID, a))
	open, err = env.ledger.HasOpenDebts(ctx, groupID, a)
	require.NoError(t, err)
	assert.False(t, open, "cancelled settlements no longer bind anyone")
}

func TestGetNetBalancesFromStore(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	groupID := env.addGroup("USD", a, b)

	require.NoError(t, env.settlements.Create(ctx, &models.Settlement{
		GroupID: groupID, PaidBy: b, PaidTo: a,
		Amount: dec("30"), Currency: "USD", Status: models.SettlementPending,
	}))

	balances, err := env.ledger.GetNetBalances(ctx, groupID, "")
	require.NoError(t, err)
	assert.Len(t, balances, 2, "every member appears, zero or not")
	assert.True(t, balances[a].Equal(dec("30")))
	assert.True(t, balances[b].Equal(dec("-30")))
}
