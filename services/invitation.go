package services

import (
	"log"

	"github.com/google/uuid"

	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/models"
)

// InviteToGroup creates an invitation and notifies the invitee. If the
// invitee is already registered they are added to the group directly.
func InviteToGroup(groupID uuid.UUID, invitedBy uuid.UUID, email string, phone string) {
	// Check if invitation already exists
	var existing models.Invitation
	query := database.DB.Where("group_id = ? AND status = ?", groupID, models.InvitationPending)
	if email != "" {
		query = query.Where("email = ?", email)
	} else if phone != "" {
		query = query.Where("phone = ?", phone)
	}

	if err := query.First(&existing).Error; err == nil {
		log.Printf("⚠️  Invitation already exists for %s/%s in group %s", email, phone, groupID)
		return
	}

	// Check if user is already registered
	if email != "" {
		var existingUser models.User
		if err := database.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
			var existingMember models.GroupMember
			if err := database.DB.Where("group_id = ? AND user_id = ?", groupID, existingUser.ID).First(&existingMember).Error; err != nil {
				database.DB.Create(&models.GroupMember{
					GroupID: groupID,
					UserID:  existingUser.ID,
					Role:    "member",
				})
				log.Printf("✅ Added existing user %s to group %s", email, groupID)
			}
			return
		}
	}

	invitation := models.Invitation{
		GroupID:   groupID,
		InvitedBy: invitedBy,
		Email:     email,
		Phone:     phone,
		Status:    models.InvitationPending,
	}

	if err := database.DB.Create(&invitation).Error; err != nil {
		log.Printf("❌ Failed to create invitation: %v", err)
		return
	}

	var inviter models.User
	database.DB.First(&inviter, "id = ?", invitedBy)
	var group models.Group
	database.DB.First(&group, "id = ?", groupID)

	if email != "" {
		GetNotificationService().NotifyInvitation(email, inviter.Name, group.Name)
	}

	log.Printf("✅ Invitation sent to %s/%s for group %s", email, phone, groupID)
}

// AcceptPendingInvitations adds a freshly registered user to every
// group they were invited to before signing up.
func AcceptPendingInvitations(user models.User) {
	var invitations []models.Invitation
	query := database.DB.Where("status = ?", models.InvitationPending)
	if user.Phone != "" {
		query = query.Where("email = ? OR phone = ?", user.Email, user.Phone)
	} else {
		query = query.Where("email = ?", user.Email)
	}
	if err := query.Find(&invitations).Error; err != nil {
		return
	}

	for _, inv := range invitations {
		var existingMember models.GroupMember
		if err := database.DB.Where("group_id = ? AND user_id = ?", inv.GroupID, user.ID).First(&existingMember).Error; err != nil {
			database.DB.Create(&models.GroupMember{
				GroupID: inv.GroupID,
				UserID:  user.ID,
				Role:    "member",
			})
		}
		database.DB.Model(&models.Invitation{}).Where("id = ?", inv.ID).Update("status", models.InvitationAccepted)
		log.Printf("✅ Auto-accepted invitation: user %s joined group %s", user.Email, inv.GroupID)
	}
}
