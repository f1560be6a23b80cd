package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"progression-engine/handlers"
	"progression-engine/middleware"
	"progression-engine/models"
	"progression-engine/services"
	"progression-engine/utils"
	"progression-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.ProfileAchievement{},
		&models.TaskDefinition{},
		&models.TaskProgress{},
		&models.TargetDefinition{},
		&models.TargetProgress{},
		&models.RewardRecord{},
		&models.StoreItem{},
		&models.OwnedItem{},
		&models.ActivityEvent{},
		&models.LeaderboardSnapshot{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedDefaults(db); err != nil {
		log.Fatal("failed to seed default catalogs:", err)
	}

	leveling := services.NewLevelingEngine(services.DefaultLevelCurve)
	achievements := services.NewAchievementService(db)
	ledger := services.NewRewardLedger(db)
	catalog := services.NewStoreItemCatalog(db)
	counter := services.NewActivityEventCounter(db)

	profileService := services.NewProfileService(db, catalog, leveling, achievements, ledger)
	taskService := services.NewTaskService(db, leveling, achievements, ledger)
	targetService := services.NewTargetService(db, counter, leveling, achievements, ledger)
	leaderboardService := services.NewLeaderboardService(db)

	// --- Activity feed sync (metric source for target grading) ---
	activitySourceURL := os.Getenv("ACTIVITY_SOURCE_URL")
	if activitySourceURL == "" {
		log.Fatal("ACTIVITY_SOURCE_URL environment variable not set")
	}
	serviceToken := os.Getenv("PROGRESSION_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("PROGRESSION_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewEventSyncWorker(db, activitySourceURL, "/api/v1/public/activity", serviceToken)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	syncWorker.Start(ctx)

	services.StartSnapshotScheduler(leaderboardService, ledger)

	handlers.SetupProgressionRoutes(app, profileService, taskService, targetService, leaderboardService, ledger)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Activity Event Sync Worker running")
	log.Println("✅ Leaderboard snapshot scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
