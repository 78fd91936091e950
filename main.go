package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"referral-service/internal/config"
	"referral-service/internal/database"
	"referral-service/internal/handlers"
	"referral-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found in current directory, trying parent")
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	// Initialize Database
	database.Connect()
	database.Migrate()
	db := database.DB

	commissionCfg := config.LoadCommission()

	// Init Services
	balanceService := services.NewBalanceService(db)
	codeService := services.NewCodeService(db, commissionCfg)
	referralService := services.NewReferralService(db, balanceService)
	withdrawalService := services.NewWithdrawalService(db, balanceService, commissionCfg)
	auditService := services.NewAuditService(db)

	// Redis/Asynq Client. The API server only enqueues; the worker binary
	// consumes.
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer asynqClient.Close()

	// Handlers
	referralHandler := handlers.NewReferralHandler(codeService, referralService)
	balanceHandler := handlers.NewBalanceHandler(balanceService, auditService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	eventHandler := handlers.NewEventHandler(asynqClient)

	// Initialize Gin
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome To Sultanah Referral service",
		})
	})

	// Referral code + account
	r.POST("/referrals/codes", referralHandler.IssueCode)
	r.GET("/referrals/codes/:code", referralHandler.LookupCode)
	r.GET("/referrals/accounts/:ownerId", referralHandler.GetAccount)
	r.GET("/referrals/tracking", referralHandler.ListTrackingEntries)
	r.POST("/referrals/registrations", referralHandler.RecordRegistration)

	// Balance + journal
	r.GET("/balances/:ownerId", balanceHandler.GetBalance)
	r.GET("/balances/:ownerId/events", balanceHandler.ListEvents)

	// Withdrawals
	r.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
	r.GET("/withdrawals", withdrawalHandler.ListOwnerWithdrawals)

	// Async event intake (fire-and-forget collaborators)
	r.POST("/events/role-granted", eventHandler.RoleGranted)
	r.POST("/events/signups", eventHandler.Signup)
	r.POST("/events/payments/:entryId/:event", eventHandler.PaymentEvent)

	// Admin surface: payment lifecycle + withdrawal approval + audit
	admin := r.Group("/admin")
	admin.POST("/payments/:entryId/submitted", referralHandler.PaymentSubmitted)
	admin.POST("/payments/:entryId/approved", referralHandler.PaymentApproved)
	admin.POST("/payments/:entryId/rejected", referralHandler.PaymentRejected)
	admin.GET("/withdrawals", withdrawalHandler.ListWithdrawalRequests)
	admin.POST("/withdrawals/:id/confirm", withdrawalHandler.Confirm)
	admin.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)
	admin.POST("/reconcile", balanceHandler.Reconcile)

	// Start Cron Schedulers
	auditService.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("HTTP Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
