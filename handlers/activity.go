package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/models"
	"github.com/prathambahekar/expense-mananger/utils"
)

// GET /api/activity?type=settlement_completed — feed across every group
// the caller belongs to, optionally narrowed to one event kind.
func GetActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var memberships []models.GroupMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	var groupIDs []uuid.UUID
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var activities []models.Activity
	if len(groupIDs) > 0 {
		query := database.DB.Where("group_id IN ?", groupIDs)
		if kind := models.ActivityType(c.Query("type")); kind != "" {
			query = query.Where("type = ?", kind)
		}
		query.Preload("User").
			Order("created_at DESC").
			Offset(pagination.Offset()).
			Limit(pagination.Limit).
			Find(&activities)

		// Attach group names
		groupNames := make(map[uuid.UUID]string)
		var groups []models.Group
		database.DB.Where("id IN ?", groupIDs).Find(&groups)
		for _, g := range groups {
			groupNames[g.ID] = g.Name
		}
		for i := range activities {
			activities[i].GroupName = groupNames[activities[i].GroupID]
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/groups/:id/activity — one group's feed, same type filter
// as the global one.
func GetGroupActivity(c *gin.Context) {
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
	c.ShouldBindQuery(&pagination)

	query := database.DB.Where("group_id = ?", groupID)
	if kind := models.ActivityType(c.Query("type")); kind != "" {
		query = query.Where("type = ?", kind)
	}

	var activities []models.Activity
	query.Preload("User").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
