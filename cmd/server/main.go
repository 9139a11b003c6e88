package main // Entry point package

import (
	"log" // Logging library
	"os"  // Environment lookups for optional settings

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-ticket-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/event-ticket-booking/internal/database"   // MySQL connection
	"github.com/iliyamo/event-ticket-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-ticket-booking/internal/middleware" // Rate limiting
	"github.com/iliyamo/event-ticket-booking/internal/queue"      // Confirmation consumer
	"github.com/iliyamo/event-ticket-booking/internal/repository" // Data access layer
	"github.com/iliyamo/event-ticket-booking/internal/router"     // Route registration
	"github.com/iliyamo/event-ticket-booking/internal/storage"    // Artifact cleanup
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs distributed rate limiting; a nil client disables it
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	lockRepo := repository.NewSeatLockRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	tickRepo := repository.NewTicketRepo(db)
	waitRepo := repository.NewWaitlistRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	wishRepo := repository.NewWishlistRepo(db)

	var artifacts storage.ArtifactStore = storage.NoopStore{}
	if dir := os.Getenv("ARTIFACT_DIR"); dir != "" {
		artifacts = storage.NewFileStore(dir)
	}

	authHandler := handler.NewAuthHandler(cfg, userRepo)
	eventHandler := handler.NewEventHandler(eventRepo, seatRepo, lockRepo, orderRepo, tickRepo, waitRepo, reviewRepo, wishRepo, artifacts)
	bookingHandler := handler.NewBookingHandler(cfg, eventRepo, seatRepo, lockRepo, orderRepo, tickRepo)
	orderHandler := handler.NewOrderHandler(orderRepo, tickRepo, seatRepo, lockRepo, artifacts)
	ticketHandler := handler.NewTicketHandler(tickRepo)
	reviewHandler := handler.NewReviewHandler(eventRepo, orderRepo, reviewRepo)
	wishlistHandler := handler.NewWishlistHandler(eventRepo, wishRepo)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, eventHandler, reviewHandler)
	router.RegisterBooking(e, bookingHandler, eventHandler, ticketHandler, reviewHandler, wishlistHandler, cfg.JWTSecret)
	router.RegisterManagement(e, eventHandler, orderHandler, ticketHandler, cfg.JWTSecret)

	// consumes ticket.confirmed messages and records what would be mailed
	go func() {
		if err := queue.StartConfirmationConsumer(); err != nil {
			log.Printf("confirmation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
