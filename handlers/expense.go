package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/models"
	"github.com/prathambahekar/expense-mananger/services"
	"github.com/prathambahekar/expense-mananger/utils"
)

// POST /api/groups/:id/expenses
func CreateExpense(c *gin.Context) {
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

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var group models.Group
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		utils.NotFound(c, "Group not found")
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = group.Currency
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.ExpenseDate); err == nil {
			expenseDate = parsed
		}
	}

	inputs, err := splitInputs(groupID, req.SplitType, req.Splits)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	splits, err := ledger.ResolveSplit(req.Amount, req.SplitType, inputs)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if err := requireMembers(groupID, splits); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expense := models.Expense{
		GroupID:     groupID,
		PaidBy:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Category:    req.Category,
		SplitType:   req.SplitType,
		Notes:       req.Notes,
		ReceiptURL:  req.ReceiptURL,
		ExpenseDate: expenseDate,
	}

	// Risk-score before persisting so the flag lands on the row itself.
	verdict := Core.ScoreAnomaly(c.Request.Context(), ledger.Candidate{
		GroupID:     groupID,
		UserID:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Category:    req.Category,
		Date:        expenseDate,
	})
	expense.RiskScore = verdict.Score
	expense.Flagged = verdict.Flagged

	// Expense, split rows and derived settlements commit or roll back
	// together.
	err = database.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := database.Conn(ctx).Create(&expense).Error; err != nil {
			return err
		}
		for i := range splits {
			splits[i].ExpenseID = expense.ID
			if err := database.Conn(ctx).Create(&splits[i]).Error; err != nil {
				return err
			}
		}
		_, err := Core.RecordExpense(ctx, &expense, splits)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	database.InvalidateBalances(c.Request.Context(), groupID)

	var payer models.User
	database.DB.First(&payer, "id = ?", userID)
	database.DB.Create(&models.Activity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        models.ActivityExpenseAdded,
		ReferenceID: expense.ID,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Description: fmt.Sprintf("%s added \"%s\"", payer.Name, expense.Description),
	})

	go services.GetNotificationService().NotifyExpenseAdded(expense, splits, payer, group)
	if expense.Flagged {
		go services.GetNotificationService().NotifyFlaggedExpense(expense, payer)
	}

	utils.SuccessResponse(c, http.StatusCreated, "Expense created", buildExpenseResponse(expense, splits))
}

// GET /api/groups/:id/expenses
func GetGroupExpenses(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var expenses []models.Expense
	database.DB.Where("group_id = ? AND is_deleted = false", groupID).
		Order("expense_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		var splits []models.ExpenseSplit
		database.DB.Where("expense_id = ?", e.ID).Find(&splits)
		responses = append(responses, buildExpenseResponse(e, splits))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ? AND is_deleted = false", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.GroupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var splits []models.ExpenseSplit
	database.DB.Where("expense_id = ?", expense.ID).Find(&splits)

	utils.SuccessResponse(c, http.StatusOK, "", buildExpenseResponse(expense, splits))
}

// PUT /api/expenses/:id
func UpdateExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ? AND is_deleted = false", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if expense.PaidBy != userID {
		utils.Forbidden(c, "Only the payer can edit an expense")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Description != "" {
		expense.Description = req.Description
	}
	if !req.Amount.IsZero() {
		expense.Amount = req.Amount
	}
	if req.Category != "" {
		expense.Category = req.Category
	}
	if req.SplitType != "" {
		expense.SplitType = req.SplitType
	}
	if req.Notes != "" {
		expense.Notes = req.Notes
	}

	inputs := req.Splits
	if len(inputs) == 0 {
		// An edit that names no participants keeps the original ones;
		// only creation defaults to the whole group.
		var existing []models.ExpenseSplit
		database.DB.Where("expense_id = ?", expense.ID).Find(&existing)
		inputs = reuseSplitInputs(expense.SplitType, existing)
	}

	splits, err := ledger.ResolveSplit(expense.Amount, expense.SplitType, inputs)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if err := requireMembers(expense.GroupID, splits); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// One transactional unit: obligations are rebuilt first so a
	// conflict with an already-paid settlement rejects the edit before
	// anything is persisted, then the expense and its split rows follow.
	err = database.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if _, err := Core.ReviseExpense(ctx, &expense, splits); err != nil {
			return err
		}
		if err := database.Conn(ctx).Save(&expense).Error; err != nil {
			return err
		}
		if err := database.Conn(ctx).Where("expense_id = ?", expense.ID).Delete(&models.ExpenseSplit{}).Error; err != nil {
			return err
		}
		for i := range splits {
			splits[i].ExpenseID = expense.ID
			if err := database.Conn(ctx).Create(&splits[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	database.InvalidateBalances(c.Request.Context(), expense.GroupID)

	var payer models.User
	database.DB.First(&payer, "id = ?", userID)
	database.DB.Create(&models.Activity{
		GroupID:     expense.GroupID,
		UserID:      userID,
		Type:        models.ActivityExpenseUpdated,
		ReferenceID: expense.ID,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Description: fmt.Sprintf("%s updated \"%s\"", payer.Name, expense.Description),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", buildExpenseResponse(expense, splits))
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, "id = ? AND is_deleted = false", expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if expense.PaidBy != userID {
		utils.Forbidden(c, "Only the payer can delete an expense")
		return
	}

	// Soft delete; the row stays for history and reconciliation. The
	// delete and the cancellation of its pending settlements commit
	// together.
	expense.IsDeleted = true
	err = database.Transaction(c.Request.Context(), func(ctx context.Context) error {
		if err := database.Conn(ctx).Save(&expense).Error; err != nil {
			return err
		}
		return Core.RemoveExpense(ctx, &expense, userID)
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	database.InvalidateBalances(c.Request.Context(), expense.GroupID)

	var payer models.User
	database.DB.First(&payer, "id = ?", userID)
	database.DB.Create(&models.Activity{
		GroupID:     expense.GroupID,
		UserID:      userID,
		Type:        models.ActivityExpenseDeleted,
		ReferenceID: expense.ID,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Description: fmt.Sprintf("%s deleted \"%s\"", payer.Name, expense.Description),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// splitInputs fills in the participant list for equal splits: when the
// request names nobody, everyone in the group shares the expense.
func splitInputs(groupID uuid.UUID, splitType models.SplitType, declared []models.SplitInput) ([]models.SplitInput, error) {
	if splitType != models.SplitEqual || len(declared) > 0 {
		return declared, nil
	}

	var members []models.GroupMember
	if err := database.DB.Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		return nil, err
	}
	inputs := make([]models.SplitInput, len(members))
	for i, m := range members {
		inputs[i] = models.SplitInput{UserID: m.UserID.String()}
	}
	return inputs, nil
}

// reuseSplitInputs rebuilds the declared inputs from an expense's
// current split rows: the original participants with their declared
// value (exact amount or percentage; equal ignores the value).
func reuseSplitInputs(splitType models.SplitType, existing []models.ExpenseSplit) []models.SplitInput {
	inputs := make([]models.SplitInput, len(existing))
	for i, s := range existing {
		value := s.OwedAmount
		if splitType == models.SplitPercentage {
			value = s.Percentage
		}
		inputs[i] = models.SplitInput{UserID: s.UserID.String(), Value: value}
	}
	return inputs
}

// requireMembers rejects splits naming users outside the group.
func requireMembers(groupID uuid.UUID, splits []models.ExpenseSplit) error {
	for _, s := range splits {
		if !isMember(groupID, s.UserID) {
			return fmt.Errorf("user %s is not a member of this group", s.UserID)
		}
	}
	return nil
}

func buildExpenseResponse(expense models.Expense, splits []models.ExpenseSplit) models.ExpenseResponse {
	var payer models.User
	database.DB.First(&payer, "id = ?", expense.PaidBy)

	splitResponses := make([]models.SplitResponse, len(splits))
	for i, s := range splits {
		var user models.User
		database.DB.First(&user, "id = ?", s.UserID)
		splitResponses[i] = models.SplitResponse{
			UserID:     s.UserID,
			UserName:   user.Name,
			OwedAmount: s.OwedAmount,
		}
	}

	return models.ExpenseResponse{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		PaidBy:      expense.PaidBy,
		PayerName:   payer.Name,
		Description: expense.Description,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Category:    expense.Category,
		SplitType:   expense.SplitType,
		Notes:       expense.Notes,
		ExpenseDate: expense.ExpenseDate,
		Splits:      splitResponses,
		RiskScore:   expense.RiskScore,
		Flagged:     expense.Flagged,
		CreatedAt:   expense.CreatedAt,
	}
}
