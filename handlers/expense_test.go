package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/models"
)

func TestReuseSplitInputsKeepsOriginalParticipants(t *testing.T) {
	// An equal expense shared by two members of a larger group: editing
	// it without naming participants must keep those two, not re-split
	// across the whole group.
	a, b := uuid.New(), uuid.New()
	existing := []models.ExpenseSplit{
		{UserID: a, OwedAmount: decimal.RequireFromString("45")},
		{UserID: b, OwedAmount: decimal.RequireFromString("45")},
	}

	inputs := reuseSplitInputs(models.SplitEqual, existing)
	require.Len(t, inputs, 2)
	assert.Equal(t, a.String(), inputs[0].UserID)
	assert.Equal(t, b.String(), inputs[1].UserID)

	// The rebuilt inputs resolve back to the same participants.
	splits, err := ledger.ResolveSplit(decimal.RequireFromString("90"), models.SplitEqual, inputs)
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, a, splits[0].UserID)
	assert.Equal(t, b, splits[1].UserID)
}

func TestReuseSplitInputsCarriesDeclaredValues(t *testing.T) {
	a := uuid.New()
	existing := []models.ExpenseSplit{
		{
			UserID:     a,
			OwedAmount: decimal.RequireFromString("60"),
			Percentage: decimal.RequireFromString("75"),
		},
	}

	exact := reuseSplitInputs(models.SplitExact, existing)
	require.Len(t, exact, 1)
	assert.True(t, exact[0].Value.Equal(decimal.RequireFromString("60")),
		"exact splits reuse the owed amount")

	pct := reuseSplitInputs(models.SplitPercentage, existing)
	require.Len(t, pct, 1)
	assert.True(t, pct[0].Value.Equal(decimal.RequireFromString("75")),
		"percentage splits reuse the declared percentage, not the amount")
}
