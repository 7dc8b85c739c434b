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

func TestPlanTransfersSkipsMiddleman(t *testing.T) {
	// A owes B 20 and B owes C 20 from different expenses; the plan
	// collapses the chain into a single transfer A -> C.
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	balances := map[uuid.UUID]decimal.Decimal{
		a: dec("-20"),
		b: decimal.Zero,
		c: dec("20"),
	}

	plan := PlanTransfers(balances, "USD")
	require.Len(t, plan, 1)
	assert.Equal(t, a, plan[0].From)
	assert.Equal(t, c, plan[0].To)
	assert.True(t, plan[0].Amount.Equal(dec("20")))
	assert.Equal(t, "USD", plan[0].Currency)
}

func TestPlanTransfersProperties(t *testing.T) {
	members := make([]uuid.UUID, 5)
	for i := range members {
		members[i] = uuid.New()
	}
	balances := map[uuid.UUID]decimal.Decimal{
		members[0]: dec("75.50"),
		members[1]: dec("-20.25"),
		members[2]: dec("-30"),
		members[3]: dec("-25.25"),
		members[4]: decimal.Zero,
	}

	plan := PlanTransfers(balances, "USD")

	assert.LessOrEqual(t, len(plan), len(members)-1, "plan must stay under memberCount-1")

	planned := decimal.Zero
	for _, tr := range plan {
		assert.NotEqual(t, tr.From, tr.To, "no self-transfers")
		assert.True(t, tr.Amount.IsPositive())
		planned = planned.Add(tr.Amount)
	}
	assert.True(t, planned.Equal(dec("75.50")),
		"planned total %s must equal the sum of positive balances", planned)

	// No pair appears twice.
	seen := make(map[[2]uuid.UUID]bool)
	for _, tr := range plan {
		key := [2]uuid.UUID{tr.From, tr.To}
		assert.False(t, seen[key], "pair %s->%s planned twice", tr.From, tr.To)
		seen[key] = true
	}
}

func TestPlanTransfersDeterministic(t *testing.T) {
	balances := map[uuid.UUID]decimal.Decimal{
		uuid.New(): dec("10"),
		uuid.New(): dec("10"),
		uuid.New(): dec("-10"),
		uuid.New(): dec("-10"),
	}

	first := PlanTransfers(balances, "USD")
	for i := 0; i < 5; i++ {
		again := PlanTransfers(balances, "USD")
		require.Equal(t, first, again, "plan must not depend on map iteration order")
	}
}

func TestPlanTransfersEmpty(t *testing.T) {
	assert.Empty(t, PlanTransfers(nil, "USD"))
	assert.Empty(t, PlanTransfers(map[uuid.UUID]decimal.Decimal{
		uuid.New(): decimal.Zero,
		uuid.New(): dec("0.001"), // dust below the epsilon
	}, "USD"))
}

func TestSettleGroupFoldsPendingIntoCompletedBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	groupID := env.addGroup("USD", a, b, c)

	// A owes B 20, B owes C 20.
	for _, s := range []models.Settlement{
		pendingSettlement(groupID, a, b, "20", "USD"),
		pendingSettlement(groupID, b, c, "20", "USD"),
	} {
		s := s
		require.NoError(t, env.settlements.Create(ctx, &s))
	}

	created, err := env.ledger.SettleGroup(ctx, groupID, "", a)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, a, created[0].PaidBy)
	assert.Equal(t, c, created[0].PaidTo)
	assert.Equal(t, models.SettlementCompleted, created[0].Status)
	require.NotNil(t, created[0].SettledAt)

	// Nothing pending remains: the netting starts from scratch.
	balances, err := env.ledger.GetNetBalances(ctx, groupID, "USD")
	require.NoError(t, err)
	for _, amount := range balances {
		assert.True(t, amount.IsZero(), "expected a clean slate, got %s", amount)
	}

	events := env.activity.byType(models.ActivityGroupSettled)
	require.Len(t, events, 1)
	assert.Equal(t, a, events[0].ActorID)
}
