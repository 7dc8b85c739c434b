package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/prathambahekar/expense-mananger/config"
	"github.com/prathambahekar/expense-mananger/database"
	"github.com/prathambahekar/expense-mananger/handlers"
	"github.com/prathambahekar/expense-mananger/ledger"
	"github.com/prathambahekar/expense-mananger/middleware"
	"github.com/prathambahekar/expense-mananger/services"
)

func main() {
	// Load configuration
	config.Load()

	// Connect to database
	database.Connect()

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis()

	// Wire the settlement engine. The scorer is the built-in rule set
	// unless an external scoring service is configured.
	var scorer ledger.Scorer
	if config.AppConfig.AnomalyScorerURL != "" {
		scorer = services.NewRemoteScorer(config.AppConfig.AnomalyScorerURL)
		log.Printf("✅ Using remote anomaly scorer at %s", config.AppConfig.AnomalyScorerURL)
	} else {
		threshold, err := decimal.NewFromString(config.AppConfig.AnomalyThreshold)
		if err != nil {
			log.Printf("⚠️  Invalid ANOMALY_THRESHOLD %q, magnitude signal disabled", config.AppConfig.AnomalyThreshold)
			threshold = decimal.Zero
		}
		scorer = ledger.NewRuleScorer(database.Expenses(), threshold)
	}
	handlers.InitCore(ledger.New(
		database.Settlements(),
		database.Expenses(),
		database.Memberships(),
		database.ActivityLog(),
		scorer,
	))

	// Setup router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)
		api.POST("/users/search", handlers.SearchUsers)

		// Groups
		api.POST("/groups", handlers.CreateGroup)
		api.GET("/groups", handlers.GetGroups)
		api.GET("/groups/:id", handlers.GetGroup)
		api.PUT("/groups/:id", handlers.UpdateGroup)
		api.POST("/groups/:id/members", handlers.AddMember)
		api.DELETE("/groups/:id/members/:uid", handlers.RemoveMember)
		api.POST("/groups/:id/invite", handlers.InviteToGroupHandler)

		// Expenses
		api.POST("/groups/:id/expenses", handlers.CreateExpense)
		api.GET("/groups/:id/expenses", handlers.GetGroupExpenses)
		api.GET("/expenses/:id", handlers.GetExpense)
		api.PUT("/expenses/:id", handlers.UpdateExpense)
		api.DELETE("/expenses/:id", handlers.DeleteExpense)

		// Balances
		api.GET("/groups/:id/balances", handlers.GetGroupBalances)
		api.GET("/balances", handlers.GetOverallBalances)

		// Settlements
		api.GET("/groups/:id/settlements", handlers.GetGroupSettlements)
		api.POST("/groups/:id/settlements", handlers.RequestSettlement)
		api.POST("/settlements/:id/pay", handlers.MarkSettlementPaid)
		api.POST("/settlements/:id/confirm", handlers.ConfirmSettlement)
		api.POST("/settlements/:id/cancel", handlers.CancelSettlement)
		api.GET("/groups/:id/settle-plan", handlers.PlanGroupSettlement)
		api.POST("/groups/:id/settle", handlers.SettleGroup)

		// Reports
		api.GET("/groups/:id/reconciliation", handlers.GetReconciliationReport)

		// Activity
		api.GET("/activity", handlers.GetActivity)
		api.GET("/groups/:id/activity", handlers.GetGroupActivity)
	}

	// Start server
	port := config.AppConfig.Port
	log.Printf("🚀 %s server starting on port %s", config.AppConfig.AppName, port)

	addr := "0.0.0.0:" + port
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
