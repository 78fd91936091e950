package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"referral-service/internal/config"
	"referral-service/internal/consumers"
	"referral-service/internal/database"
	"referral-service/internal/services"
	"referral-service/internal/worker"
)

func main() {
	// Load env
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found in ../../.env, trying .env")
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system env")
		}
	}

	// Connect DB
	database.Connect()
	db := database.DB

	commissionCfg := config.LoadCommission()

	// Init Services
	balanceService := services.NewBalanceService(db)
	codeService := services.NewCodeService(db, commissionCfg)
	referralService := services.NewReferralService(db, balanceService)

	// Processor
	processor := consumers.NewReferralProcessor(codeService, referralService)

	// Redis
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	log.Println("Starting Asynq Worker...")
	worker.StartWorker(redisOpt, processor)
}
