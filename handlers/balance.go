package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/models"
	"github.com/prathambahekar/expense-mananger/utils"
)

// GET /api/groups/:id/balances?currency=USD
func GetGroupBalances(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		utils.NotFound(c, "Group not found")
		return
	}

	currency := c.Query("currency")
	if currency == "" {
		currency = group.Currency
	}

	if cached, ok := database.GetCachedBalances(c.Request.Context(), groupID, currency); ok {
		utils.SuccessResponse(c, http.StatusOK, "", cached)
		return
	}

	balances, err := Core.GetNetBalances(c.Request.Context(), groupID, currency)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	plan := ledger.PlanTransfers(balances, currency)

	summary := buildBalanceSummary(group, currency, balances, plan)
	database.SetCachedBalances(c.Request.Context(), summary)

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/balances
// The caller's net position against each friend, across all groups.
func GetOverallBalances(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var settlements []models.Settlement
	database.DB.Where("status = ? AND (paid_by = ? OR paid_to = ?)",
		models.SettlementPending, userID, userID).
		Find(&settlements)

	// Net per friend per currency; a friend key is user+currency.
	type friendKey struct {
		userID   uuid.UUID
		currency string
	}
	perFriend := make(map[friendKey]decimal.Decimal)
	for _, s := range settlements {
		if s.PaidBy == userID {
			key := friendKey{s.PaidTo, s.Currency}
			perFriend[key] = perFriend[key].Sub(s.Amount)
		} else {
			key := friendKey{s.PaidBy, s.Currency}
			perFriend[key] = perFriend[key].Add(s.Amount)
		}
	}

	summary := models.OverallBalanceSummary{
		TotalOwed:  decimal.Zero,
		TotalOwing: decimal.Zero,
	}
	for key, amount := range perFriend {
		if amount.IsZero() {
			continue
		}
		var friend models.User
		if err := database.DB.First(&friend, "id = ?", key.userID).Error; err != nil {
			continue
		}
		summary.Friends = append(summary.Friends, models.FriendBalance{
			UserID:    friend.ID,
			Name:      friend.Name,
			Email:     friend.Email,
			AvatarURL: friend.AvatarURL,
			Amount:    amount,
			Currency:  key.currency,
		})
		if amount.IsPositive() {
			summary.TotalOwed = summary.TotalOwed.Add(amount)
		} else {
			summary.TotalOwing = summary.TotalOwing.Add(amount.Neg())
		}
	}

	sort.Slice(summary.Friends, func(i, j int) bool {
		return summary.Friends[i].Name < summary.Friends[j].Name
	})

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

func buildBalanceSummary(group models.Group, currency string, balances map[uuid.UUID]decimal.Decimal, plan []ledger.Transfer) *models.GroupBalanceSummary {
	names := make(map[uuid.UUID]string, len(balances))
	for userID := range balances {
		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err == nil {
			names[userID] = user.Name
		}
	}

	summary := &models.GroupBalanceSummary{
		GroupID:   group.ID,
		GroupName: group.Name,
		Currency:  currency,
	}

	for userID, amount := range balances {
		summary.NetBalances = append(summary.NetBalances, models.MemberBalance{
			UserID: userID,
			Name:   names[userID],
			Amount: amount,
		})
	}
	sort.Slice(summary.NetBalances, func(i, j int) bool {
		return summary.NetBalances[i].UserID.String() < summary.NetBalances[j].UserID.String()
	})

	for _, t := range plan {
		summary.Suggested = append(summary.Suggested, models.Balance{
			From:     t.From,
			FromName: names[t.From],
			To:       t.To,
			ToName:   names[t.To],
			Amount:   t.Amount,
			Currency: t.Currency,
		})
	}

	var total decimal.Decimal
	database.DB.Model(&models.Expense{}).
		Where("group_id = ? AND currency = ? AND is_deleted = false", group.ID, currency).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total)
	summary.TotalSpent = total

	return summary
}
