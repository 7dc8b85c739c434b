package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/utils"
)

// GET /api/groups/:id/reconciliation
// Completed settlements whose source expense was deleted afterwards:
// money that moved for a reason that no longer exists.
func GetReconciliationReport(c *gin.Context) {
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

	orphaned, err := Core.ReconciliationReport(c.Request.Context(), groupID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", orphaned)
}
