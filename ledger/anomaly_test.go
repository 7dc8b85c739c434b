package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathambahekar/expense-mananger/models"
)

func TestRuleScorerDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()
	groupID := env.addGroup("USD", user)

	env.expenses.put(models.Expense{
		ID:          uuid.New(),
		GroupID:     groupID,
		PaidBy:      user,
		Description: "Groceries",
		Amount:      dec("45.20"),
		Currency:    "USD",
		CreatedAt:   time.Now().Add(-24 * time.Hour),
	})

	result := env.ledger.ScoreAnomaly(ctx, Candidate{
		GroupID:     groupID,
		UserID:      user,
		Description: "Groceries",
		Amount:      dec("45.20"),
		Currency:    "USD",
		Date:        time.Now(),
	})
	assert.True(t, result.Flagged, "identical expense within the window must flag")
	assert.InDelta(t, duplicateScore, result.Score, 1e-9)
}

func TestRuleScorerDuplicateOutsideWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()
	groupID := env.addGroup("USD", user)

	env.expenses.put(models.Expense{
		ID:          uuid.New(),
		GroupID:     groupID,
		PaidBy:      user,
		Description: "Groceries",
		Amount:      dec("45.20"),
		Currency:    "USD",
		CreatedAt:   time.Now().Add(-30 * 24 * time.Hour),
	})

	result := env.ledger.ScoreAnomaly(ctx, Candidate{
		GroupID:     groupID,
		UserID:      user,
		Description: "Groceries",
		Amount:      dec("45.20"),
		Currency:    "USD",
		Date:        time.Now(),
	})
	assert.False(t, result.Flagged, "a month-old match is not a duplicate")
}

func TestRuleScorerMagnitude(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := uuid.New()
	groupID := env.addGroup("USD", user)

	t.Run("absolute threshold", func(t *testing.T) {
		result := env.ledger.ScoreAnomaly(ctx, Candidate{
			GroupID: groupID, UserID: user,
			Description: "New laptop", Amount: dec("2500"), Currency: "USD",
			Date: time.Now(),
		})
		assert.True(t, result.Flagged)
		assert.InDelta(t, absoluteScore, result.Score, 1e-9)
	})

	t.Run("share of historical spend", func(t *testing.T) {
		// History of 100 total; a 60 expense is over the 40% share but
		// under the absolute threshold.
		env.expenses.put(models.Expense{
			ID: uuid.New(), GroupID: groupID, PaidBy: user,
			Description: "Old stuff", Amount: dec("100"), Currency: "USD",
			CreatedAt: time.Now().Add(-60 * 24 * time.Hour),
		})
		result := env.ledger.ScoreAnomaly(ctx, Candidate{
			GroupID: groupID, UserID: user,
			Description: "Concert tickets", Amount: dec("60"), Currency: "USD",
			Date: time.Now(),
		})
		assert.True(t, result.Flagged)
		assert.InDelta(t, shareScore, result.Score, 1e-9)
	})

	t.Run("ordinary expense stays quiet", func(t *testing.T) {
		result := env.ledger.ScoreAnomaly(ctx, Candidate{
			GroupID: groupID, UserID: user,
			Description: "Coffee", Amount: dec("4.50"), Currency: "USD",
			Date: time.Now(),
		})
		assert.False(t, result.Flagged)
		assert.Zero(t, result.Score)
	})
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, Candidate) (float64, error) {
	return 0, errors.New("scorer unavailable")
}

type slowScorer struct{}

func (slowScorer) Score(ctx context.Context, _ Candidate) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(time.Minute):
		return 1, nil
	}
}

func TestScoreAnomalyFallsBackToNotFlagged(t *testing.T) {
	env := newTestEnv()
	candidate := Candidate{GroupID: uuid.New(), UserID: uuid.New(), Amount: dec("10"), Date: time.Now()}

	env.ledger.scorer = failingScorer{}
	result := env.ledger.ScoreAnomaly(context.Background(), candidate)
	assert.False(t, result.Flagged)
	assert.Zero(t, result.Score)

	env.ledger.scorer = nil
	result = env.ledger.ScoreAnomaly(context.Background(), candidate)
	assert.False(t, result.Flagged)
}

func TestScoreAnomalyTimeBounded(t *testing.T) {
	env := newTestEnv()
	env.ledger.scorer = slowScorer{}

	start := time.Now()
	result := env.ledger.ScoreAnomaly(context.Background(), Candidate{
		GroupID: uuid.New(), UserID: uuid.New(), Amount: dec("10"), Date: time.Now(),
	})
	elapsed := time.Since(start)

	assert.False(t, result.Flagged, "timeout degrades to not flagged")
	require.Less(t, elapsed, 10*time.Second, "the scorer call must be time-bounded")
}
