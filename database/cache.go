package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prathambahekar/expense-mananger/models"
)

// Balance summaries are cheap to recompute but hot on the dashboard, so
// they get a short-lived cache entry invalidated on every mutation.
const balanceCacheTTL = 5 * time.Minute

func balanceCacheKey(groupID uuid.UUID, currency string) string {
	return fmt.Sprintf("balances:%s:%s", groupID, currency)
}

// GetCachedBalances returns the cached summary for a group/currency, or
// false when Redis is down or the key is cold.
func GetCachedBalances(ctx context.Context, groupID uuid.UUID, currency string) (*models.GroupBalanceSummary, bool) {
	if Redis == nil {
		return nil, false
	}
	raw, err := Redis.Get(ctx, balanceCacheKey(groupID, currency)).Result()
	if err == redis.Nil || err != nil {
		return nil, false
	}
	var summary models.GroupBalanceSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

func SetCachedBalances(ctx context.Context, summary *models.GroupBalanceSummary) {
	if Redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	Redis.Set(ctx, balanceCacheKey(summary.GroupID, summary.Currency), raw, balanceCacheTTL)
}

// InvalidateBalances drops every cached currency for the group. Called
// after any expense or settlement mutation.
func InvalidateBalances(ctx context.Context, groupID uuid.UUID) {
	if Redis == nil {
		return
	}
	iter := Redis.Scan(ctx, 0, fmt.Sprintf("balances:%s:*", groupID), 0).Iterator()
	for iter.Next(ctx) {
		Redis.Del(ctx, iter.Val())
	}
}
