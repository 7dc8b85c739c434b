package ledger

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is an expense about to be created, as seen by the anomaly
// flagger.
type Candidate struct {
	GroupID     uuid.UUID
	UserID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Date        time.Time
}

// Result is the flagger's verdict. Flagging never blocks expense
// creation; it only annotates the record.
type Result struct {
	Score   float64 `json:"score"`
	Flagged bool    `json:"flagged"`
}

// Scorer is a pluggable risk strategy. RuleScorer is the in-process
// default; services.RemoteScorer delegates over HTTP.
type Scorer interface {
	Score(ctx context.Context, c Candidate) (float64, error)
}

const (
	duplicateScore = 0.9
	absoluteScore  = 0.75
	shareScore     = 0.6
	flagThreshold  = 0.5

	// duplicateWindow is how far back an identical expense counts as a
	// likely double entry.
	duplicateWindow = 7 * 24 * time.Hour

	// scoreTimeout bounds the scorer call; on timeout the expense is
	// simply not flagged.
	scoreTimeout = 2 * time.Second
)

// fortyPercent of a user's historical spend; a single expense above it
// is an outlier for that user.
var fortyPercent = decimal.New(4, -1)

// RuleScorer is the built-in heuristic scorer: a duplicate signal and
// two magnitude signals, combined by taking the maximum.
type RuleScorer struct {
	expenses ExpenseStore

	// AbsoluteThreshold flags any single expense above this amount.
	// Zero disables the signal.
	AbsoluteThreshold decimal.Decimal
}

func NewRuleScorer(expenses ExpenseStore, absoluteThreshold decimal.Decimal) *RuleScorer {
	return &RuleScorer{expenses: expenses, AbsoluteThreshold: absoluteThreshold}
}

func (r *RuleScorer) Score(ctx context.Context, c Candidate) (float64, error) {
	score := 0.0

	dupes, err := r.expenses.CountSimilar(ctx, c.GroupID, c.Description, c.Amount, c.Currency, c.Date.Add(-duplicateWindow))
	if err != nil {
		return 0, err
	}
	if dupes > 0 {
		score = duplicateScore
	}

	if r.AbsoluteThreshold.IsPositive() && c.Amount.GreaterThan(r.AbsoluteThreshold) && score < absoluteScore {
		score = absoluteScore
	}

	total, err := r.expenses.TotalSpentBy(ctx, c.UserID)
	if err != nil {
		return 0, err
	}
	if total.IsPositive() && c.Amount.GreaterThan(total.Mul(fortyPercent)) && score < shareScore {
		score = shareScore
	}

	return score, nil
}

// ScoreAnomaly runs the configured scorer with a hard time bound. Any
// failure or timeout degrades to "not flagged" so risk scoring can
// never stall or fail an expense mutation.
func (l *Ledger) ScoreAnomaly(ctx context.Context, c Candidate) Result {
	if l.scorer == nil {
		return Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, scoreTimeout)
	defer cancel()

	score, err := l.scorer.Score(ctx, c)
	if err != nil {
		log.Printf("⚠️  anomaly scorer failed, not flagging: %v", err)
		return Result{}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return Result{Score: score, Flagged: score > flagThreshold}
}
