package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/models"
)

var (
	hundred = decimal.NewFromInt(100)
	// minorUnit is one cent; declared totals may drift from the expense
	// amount by at most this much before the split is rejected.
	minorUnit = decimal.New(1, -2) // 0.01
)

// ResolveSplit turns an expense amount plus a split policy into concrete
// per-member shares. Shares are non-negative and sum to the amount to
// the currency's minor unit; fractional cents are never dropped.
//
// Pure function: callers persist the resolved shares themselves.
func ResolveSplit(amount decimal.Decimal, splitType models.SplitType, inputs []models.SplitInput) ([]models.ExpenseSplit, error) {
	if !amount.IsPositive() {
		return nil, validationf("amount must be greater than 0, got %s", amount)
	}
	if len(inputs) == 0 {
		return nil, validationf("at least one participant is required")
	}

	participants := make([]uuid.UUID, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for i, in := range inputs {
		uid, err := uuid.Parse(in.UserID)
		if err != nil {
			return nil, validationf("invalid user ID %q", in.UserID)
		}
		if seen[uid] {
			return nil, validationf("duplicate participant %s", uid)
		}
		seen[uid] = true
		participants[i] = uid
	}

	switch splitType {
	case models.SplitEqual:
		return resolveEqual(amount, participants)
	case models.SplitExact:
		return resolveExact(amount, participants, inputs)
	case models.SplitPercentage:
		return resolvePercentage(amount, participants, inputs)
	default:
		return nil, validationf("invalid split type: %s", splitType)
	}
}

// resolveEqual divides the amount evenly; the rounding remainder goes to
// the last participant so the shares sum exactly.
func resolveEqual(amount decimal.Decimal, participants []uuid.UUID) ([]models.ExpenseSplit, error) {
	n := decimal.NewFromInt(int64(len(participants)))
	perPerson := amount.Div(n).RoundFloor(2)
	remainder := amount.Sub(perPerson.Mul(n))

	splits := make([]models.ExpenseSplit, len(participants))
	for i, uid := range participants {
		share := perPerson
		if i == len(participants)-1 {
			share = share.Add(remainder)
		}
		splits[i] = models.ExpenseSplit{UserID: uid, OwedAmount: share}
	}
	return splits, nil
}

// resolveExact takes declared amounts verbatim; their sum must match the
// expense amount within one minor unit.
func resolveExact(amount decimal.Decimal, participants []uuid.UUID, inputs []models.SplitInput) ([]models.ExpenseSplit, error) {
	total := decimal.Zero
	splits := make([]models.ExpenseSplit, len(inputs))
	for i, in := range inputs {
		if in.Value.IsNegative() {
			return nil, validationf("share for %s must not be negative", participants[i])
		}
		total = total.Add(in.Value)
		splits[i] = models.ExpenseSplit{UserID: participants[i], OwedAmount: in.Value.Round(2)}
	}
	if total.Sub(amount).Abs().GreaterThan(minorUnit) {
		return nil, validationf("split amounts (%s) don't add up to total (%s)", total, amount)
	}
	return splits, nil
}

// resolvePercentage converts declared percentages (summing to 100 within
// 0.01) into amounts; the rounding remainder is assigned to the
// largest-share participant to preserve the exact total.
func resolvePercentage(amount decimal.Decimal, participants []uuid.UUID, inputs []models.SplitInput) ([]models.ExpenseSplit, error) {
	totalPct := decimal.Zero
	for i, in := range inputs {
		if in.Value.IsNegative() {
			return nil, validationf("percentage for %s must not be negative", participants[i])
		}
		totalPct = totalPct.Add(in.Value)
	}
	if totalPct.Sub(hundred).Abs().GreaterThan(minorUnit) {
		return nil, validationf("percentages must add up to 100, got %s", totalPct)
	}

	splits := make([]models.ExpenseSplit, len(inputs))
	resolved := decimal.Zero
	largest := 0
	for i, in := range inputs {
		share := amount.Mul(in.Value).Div(hundred).Round(2)
		splits[i] = models.ExpenseSplit{UserID: participants[i], OwedAmount: share, Percentage: in.Value}
		resolved = resolved.Add(share)
		if in.Value.GreaterThan(inputs[largest].Value) {
			largest = i
		}
	}

	remainder := amount.Sub(resolved)
	if !remainder.IsZero() {
		splits[largest].OwedAmount = splits[largest].OwedAmount.Add(remainder)
	}
	return splits, nil
}
