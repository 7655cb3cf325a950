package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pod-shop-content-service/handlers"
	"pod-shop-content-service/middleware"
	"pod-shop-content-service/models"
	"pod-shop-content-service/services"

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

	app := fiber.New(fiber.Config{
		AppName: "Pod Shop Content API",
	})

	// CORS: configured origins plus the local dev frontends
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:3001",
	}
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}
	allowedOriginsString := strings.Join(allowedOrigins, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	// Additive best-effort schema management: AutoMigrate creates missing
	// tables, columns, and indexes, and never drops anything.
	if err := db.AutoMigrate(
		&models.GameInProgress{},
		&models.HistoricalGame{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	dataDir := os.Getenv("CONTENT_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	gameService := services.NewGameService(db)
	contentService, err := services.NewContentService(dataDir)
	if err != nil {
		log.Fatal("failed to initialize content store:", err)
	}

	// Passive sweep: stale in-progress games are promoted on read traffic.
	// No scheduler — maintenance is entirely demand-driven.
	app.Use(middleware.MoveOldGamesMiddleware(gameService))

	handlers.SetupGameRoutes(app, gameService)
	handlers.SetupContentRoutes(app, contentService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Pod Shop Content API", "version": "1.0.0"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Content data dir: %s", dataDir)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
