package ledger

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathambahekar/expense-mananger/models"
)

func inputs(values ...string) []models.SplitInput {
	out := make([]models.SplitInput, len(values))
	for i, v := range values {
		out[i] = models.SplitInput{UserID: uuid.New().String()}
		if v != "" {
			out[i].Value = dec(v)
		}
	}
	return out
}

func shareSum(splits []models.ExpenseSplit) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.OwedAmount)
	}
	return total
}

func TestResolveSplitEqual(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		participants int
		wantShares   []string
	}{
		{"divides evenly", "90", 3, []string{"30", "30", "30"}},
		{"remainder to last participant", "100", 3, []string{"33.33", "33.33", "33.34"}},
		{"two way cent", "0.03", 2, []string{"0.01", "0.02"}},
		{"single participant", "42.50", 1, []string{"42.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := inputs(make([]string, tt.participants)...)
			splits, err := ResolveSplit(dec(tt.amount), models.SplitEqual, in)
			require.NoError(t, err)
			require.Len(t, splits, tt.participants)

			for i, want := range tt.wantShares {
				assert.True(t, splits[i].OwedAmount.Equal(dec(want)),
					"share %d = %s, want %s", i, splits[i].OwedAmount, want)
			}
			assert.True(t, shareSum(splits).Equal(dec(tt.amount)), "shares must sum to the amount")
		})
	}
}

func TestResolveSplitExact(t *testing.T) {
	t.Run("sum matches", func(t *testing.T) {
		splits, err := ResolveSplit(dec("30"), models.SplitExact, inputs("10", "10", "10"))
		require.NoError(t, err)
		assert.True(t, shareSum(splits).Equal(dec("30")))
	})

	t.Run("off by one minor unit is accepted", func(t *testing.T) {
		// {10, 10, 9.99} against 30: mismatch of exactly 0.01 sits on
		// the tolerance boundary and passes.
		_, err := ResolveSplit(dec("30"), models.SplitExact, inputs("10", "10", "9.99"))
		require.NoError(t, err)
	})

	t.Run("beyond one minor unit is rejected", func(t *testing.T) {
		_, err := ResolveSplit(dec("30"), models.SplitExact, inputs("10", "10", "9.98"))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
	})

	t.Run("negative share rejected", func(t *testing.T) {
		_, err := ResolveSplit(dec("10"), models.SplitExact, inputs("15", "-5"))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
	})
}

func TestResolveSplitPercentage(t *testing.T) {
	t.Run("percentages resolve and sum exactly", func(t *testing.T) {
		splits, err := ResolveSplit(dec("100"), models.SplitPercentage, inputs("50", "30", "20"))
		require.NoError(t, err)
		assert.True(t, splits[0].OwedAmount.Equal(dec("50")))
		assert.True(t, splits[1].OwedAmount.Equal(dec("30")))
		assert.True(t, splits[2].OwedAmount.Equal(dec("20")))
	})

	t.Run("rounding remainder goes to largest share", func(t *testing.T) {
		// 33.33 / 33.33 / 33.34 rounds to 33.34+33.34+33.35 = 100.03;
		// the -0.03 remainder lands on the largest participant.
		splits, err := ResolveSplit(dec("100.03"), models.SplitPercentage, inputs("33.33", "33.33", "33.34"))
		require.NoError(t, err)
		assert.True(t, shareSum(splits).Equal(dec("100.03")), "got %s", shareSum(splits))
		assert.True(t, splits[2].OwedAmount.GreaterThanOrEqual(splits[0].OwedAmount))
	})

	t.Run("percentages must total 100", func(t *testing.T) {
		_, err := ResolveSplit(dec("100"), models.SplitPercentage, inputs("60", "30"))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("tolerates 0.01 drift on the total", func(t *testing.T) {
		_, err := ResolveSplit(dec("100"), models.SplitPercentage, inputs("50", "49.99"))
		require.NoError(t, err)
	})
}

func TestResolveSplitValidation(t *testing.T) {
	var verr *ValidationError

	_, err := ResolveSplit(dec("0"), models.SplitEqual, inputs(""))
	require.True(t, errors.As(err, &verr), "zero amount")

	_, err = ResolveSplit(dec("-5"), models.SplitEqual, inputs(""))
	require.True(t, errors.As(err, &verr), "negative amount")

	_, err = ResolveSplit(dec("10"), models.SplitEqual, nil)
	require.True(t, errors.As(err, &verr), "no participants")

	_, err = ResolveSplit(dec("10"), models.SplitType("shares"), inputs(""))
	require.True(t, errors.As(err, &verr), "unknown policy")

	_, err = ResolveSplit(dec("10"), models.SplitEqual, []models.SplitInput{{UserID: "not-a-uuid"}})
	require.True(t, errors.As(err, &verr), "bad user id")

	dup := uuid.New().String()
	_, err = ResolveSplit(dec("10"), models.SplitEqual, []models.SplitInput{{UserID: dup}, {UserID: dup}})
	require.True(t, errors.As(err, &verr), "duplicate participant")
}
