package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/models"
	"github.com/prathambahekar/expense-mananger/services"
	"github.com/prathambahekar/expense-mananger/utils"
)

// GET /api/groups/:id/settlements?status=pending
func GetGroupSettlements(c *gin.Context) {
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

	status := models.SettlementStatus(c.Query("status"))
	switch status {
	case "", models.SettlementPending, models.SettlementCompleted, models.SettlementCancelled:
	default:
		utils.BadRequest(c, "Invalid status filter")
		return
	}

	var settlements []models.Settlement
	query := database.DB.Where("group_id = ?", groupID).
		Preload("Payer").Preload("Payee").
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&settlements)

	utils.SuccessResponse(c, http.StatusOK, "", settlements)
}

// POST /api/groups/:id/settlements
// The caller is the payee asking the named payer to settle up.
func RequestSettlement(c *gin.Context) {
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

	var req models.RequestSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		utils.BadRequest(c, "Invalid payer ID")
		return
	}

	settlement, err := Core.Request(c.Request.Context(), payerID, userID, req.Amount, req.Currency, groupID, req.Note)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	go notifySettlementRequested(*settlement)

	utils.SuccessResponse(c, http.StatusCreated, "Settlement requested", settlement)
}

// POST /api/settlements/:id/pay
func MarkSettlementPaid(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid settlement ID")
		return
	}

	var req models.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, err.Error())
		return
	}

	settlement, err := Core.MarkPaid(c.Request.Context(), settlementID, userID, ledger.MarkPaidOptions{
		Method: req.Method,
		Note:   req.Note,
		Proof:  req.Proof,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	database.InvalidateBalances(c.Request.Context(), settlement.GroupID)
	go notifySettlementCompleted(*settlement)

	utils.SuccessResponse(c, http.StatusOK, "Settlement marked as paid", settlement)
}

// POST /api/settlements/:id/confirm
func ConfirmSettlement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid settlement ID")
		return
	}

	settlement, err := Core.ConfirmReceipt(c.Request.Context(), settlementID, userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Receipt confirmed", settlement)
}

// POST /api/settlements/:id/cancel
func CancelSettlement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	settlementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid settlement ID")
		return
	}

	if err := Core.Cancel(c.Request.Context(), settlementID, userID); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settlement cancelled", nil)
}

// GET /api/groups/:id/settle-plan?currency=USD
// Advisory minimal transfer plan; nothing is persisted.
func PlanGroupSettlement(c *gin.Context) {
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

	plan, err := Core.PlanSettlement(c.Request.Context(), groupID, c.Query("currency"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plan)
}

// POST /api/groups/:id/settle
// Accepts the current plan as a batch of completed settlements.
func SettleGroup(c *gin.Context) {
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

	var req struct {
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, err.Error())
		return
	}

	created, err := Core.SettleGroup(c.Request.Context(), groupID, req.Currency, userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	database.InvalidateBalances(c.Request.Context(), groupID)

	utils.SuccessResponse(c, http.StatusOK, "Group settled", created)
}

func notifySettlementRequested(s models.Settlement) {
	var payer, payee models.User
	var group models.Group
	database.DB.First(&payer, "id = ?", s.PaidBy)
	database.DB.First(&payee, "id = ?", s.PaidTo)
	database.DB.First(&group, "id = ?", s.GroupID)
	services.GetNotificationService().NotifySettlementRequested(s, payer, payee, group)
}

func notifySettlementCompleted(s models.Settlement) {
	var payer, payee models.User
	var group models.Group
	database.DB.First(&payer, "id = ?", s.PaidBy)
	database.DB.First(&payee, "id = ?", s.PaidTo)
	database.DB.First(&group, "id = ?", s.GroupID)
	services.GetNotificationService().NotifySettlementCompleted(s, payer, payee, group)
}
