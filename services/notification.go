package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"

	"github.com/prathambahekar/expense-mananger/config"
	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/models"
)

// NotificationService delivers email (SendGrid) and push (FCM)
// notifications. All delivery is best-effort: failures are logged, never
// surfaced to the caller.
type NotificationService struct {
	messaging *messaging.Client
}

var (
	notifService *NotificationService
	notifOnce    sync.Once
)

func GetNotificationService() *NotificationService {
	notifOnce.Do(func() {
		notifService = &NotificationService{}
		notifService.initFirebase()
	})
	return notifService
}

func (ns *NotificationService) initFirebase() {
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(config.AppConfig.FirebaseCredPath))
	if err != nil {
		log.Printf("⚠️  Firebase not configured, push notifications disabled: %v", err)
		return
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("⚠️  Firebase messaging unavailable: %v", err)
		return
	}
	ns.messaging = client
}

// ============================================================
// PUSH NOTIFICATIONS via FCM
// ============================================================

func (ns *NotificationService) sendPush(fcmToken, title, body string, data map[string]string) {
	if ns.messaging == nil || fcmToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := ns.messaging.Send(context.Background(), msg); err != nil {
		log.Printf("❌ FCM send error: %v", err)
		return
	}
	log.Printf("✅ Push notification sent: %s", title)
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

func (ns *NotificationService) sendEmail(toEmail, toName, subject, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
		return
	}
	log.Printf("✅ Email sent to %s", toEmail)
}

// ============================================================
// DOMAIN NOTIFICATIONS
// ============================================================

// NotifyExpenseAdded tells every split participant (except the payer)
// about their new share.
func (ns *NotificationService) NotifyExpenseAdded(expense models.Expense, splits []models.ExpenseSplit, payer models.User, group models.Group) {
	for _, split := range splits {
		if split.UserID == payer.ID {
			continue
		}
		var user models.User
		if err := database.DB.First(&user, "id = ?", split.UserID).Error; err != nil {
			continue
		}

		title := fmt.Sprintf("New expense in %s", group.Name)
		body := fmt.Sprintf("%s added \"%s\" — your share is %s %s",
			payer.Name, expense.Description, expense.Currency, split.OwedAmount)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":       "expense_added",
			"group_id":   group.ID.String(),
			"expense_id": expense.ID.String(),
		})
		ns.sendEmail(user.Email, user.Name, title,
			fmt.Sprintf("<p>%s</p><p>Open %s to settle up.</p>", body, config.AppConfig.AppName))
	}
}

// NotifySettlementCompleted tells the payee their money arrived.
func (ns *NotificationService) NotifySettlementCompleted(settlement models.Settlement, payer, payee models.User, group models.Group) {
	title := fmt.Sprintf("Payment received in %s", group.Name)
	body := fmt.Sprintf("%s paid you %s %s", payer.Name, settlement.Currency, settlement.Amount)

	ns.sendPush(payee.FCMToken, title, body, map[string]string{
		"type":          "settlement_completed",
		"group_id":      group.ID.String(),
		"settlement_id": settlement.ID.String(),
	})
	ns.sendEmail(payee.Email, payee.Name, title,
		fmt.Sprintf("<p>%s</p><p>Confirm the payment in %s.</p>", body, config.AppConfig.AppName))
}

// NotifySettlementRequested asks the payer to settle up.
func (ns *NotificationService) NotifySettlementRequested(settlement models.Settlement, payer, payee models.User, group models.Group) {
	title := fmt.Sprintf("Settlement request in %s", group.Name)
	body := fmt.Sprintf("%s requested %s %s from you", payee.Name, settlement.Currency, settlement.Amount)

	ns.sendPush(payer.FCMToken, title, body, map[string]string{
		"type":          "settlement_requested",
		"group_id":      group.ID.String(),
		"settlement_id": settlement.ID.String(),
	})
	ns.sendEmail(payer.Email, payer.Name, title,
		fmt.Sprintf("<p>%s</p>", body))
}

// NotifyMemberAdded tells a user they were added to a group.
func (ns *NotificationService) NotifyMemberAdded(group models.Group, adder, target models.User) {
	title := fmt.Sprintf("You were added to %s", group.Name)
	body := fmt.Sprintf("%s added you to the group", adder.Name)

	ns.sendPush(target.FCMToken, title, body, map[string]string{
		"type":     "member_joined",
		"group_id": group.ID.String(),
	})
	ns.sendEmail(target.Email, target.Name, title,
		fmt.Sprintf("<p>%s <b>%s</b>.</p>", body, group.Name))
}

// NotifyInvitation emails someone who may not have an account yet.
func (ns *NotificationService) NotifyInvitation(email, inviterName, groupName string) {
	subject := fmt.Sprintf("%s invited you to %s", inviterName, groupName)
	body := fmt.Sprintf("<p>%s invited you to split expenses in <b>%s</b>.</p><p><a href=\"%s\">Join %s</a> to get started.</p>",
		inviterName, groupName, config.AppConfig.AppURL, config.AppConfig.AppName)
	ns.sendEmail(email, "", subject, body)
}

// NotifyFlaggedExpense warns the payer that their expense looks like a
// duplicate or an outlier.
func (ns *NotificationService) NotifyFlaggedExpense(expense models.Expense, payer models.User) {
	title := "Expense flagged for review"
	body := fmt.Sprintf("\"%s\" (%s %s) looks unusual — please double-check it",
		expense.Description, expense.Currency, expense.Amount)

	ns.sendPush(payer.FCMToken, title, body, map[string]string{
		"type":       "expense_flagged",
		"expense_id": expense.ID.String(),
	})
}
