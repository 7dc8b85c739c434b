package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/ledger"
)

// RemoteScorer calls an external ML scoring service over HTTP. It
// implements ledger.Scorer so it can be swapped in for the built-in
// rule scorer via ANOMALY_SCORER_URL.
type RemoteScorer struct {
	URL    string
	Client *http.Client
}

func NewRemoteScorer(url string) *RemoteScorer {
	return &RemoteScorer{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

type scoreRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	UserID      string          `json:"userId"`
	GroupID     string          `json:"groupId"`
}

type scoreResponse struct {
	RiskScore float64 `json:"riskScore"`
}

func (rs *RemoteScorer) Score(ctx context.Context, c ledger.Candidate) (float64, error) {
	payload, err := json.Marshal(scoreRequest{
		Description: c.Description,
		Amount:      c.Amount,
		Currency:    c.Currency,
		Category:    c.Category,
		Date:        c.Date,
		UserID:      c.UserID.String(),
		GroupID:     c.GroupID.String(),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rs.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.RiskScore, nil
}
