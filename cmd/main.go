package main

import (
	"context"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	_ "github.com/lib/pq"

	"giveaway/internal/config"
	"giveaway/internal/handlers"
	"giveaway/internal/membership"
	"giveaway/internal/notify"
	"giveaway/internal/scheduler"
	"giveaway/internal/services"
	"giveaway/internal/store"
	"giveaway/internal/store/memory"
	"giveaway/internal/store/postgres"
)

func main() {
	defer logger.Init("giveaway", true, false, io.Discard).Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Pick the drawing record store
	var st store.Store
	if cfg.DatabaseDSN != "" {
		pgStore, db, err := postgres.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		st = pgStore
	} else {
		logger.Warning("DATABASE_DSN not set; drawings are held in memory only")
		st = memory.New()
	}

	// 3. Pick the collaborators
	var members membership.Lookup
	if cfg.MembershipURL != "" {
		members = membership.NewHTTPLookup(cfg.MembershipURL)
	} else {
		members = membership.NewStaticDirectory()
	}

	var notifier notify.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
	} else {
		notifier = notify.LogNotifier{}
	}

	// 4. Initialize the giveaway service and the HTTP handler
	giveawayService := services.NewGiveawayService(st, members, notifier)
	httpHandler := handlers.NewHTTPHandler(giveawayService)

	// 5. Set up the Gin router
	r := gin.Default()
	httpHandler.RegisterRoutes(r)

	// 6. Start the expiry scanner
	scanner := scheduler.New(giveawayService, cfg.ScanInterval)
	go scanner.Run(ctx)

	// 7. Run the server
	logger.Infof("Server starting on %s (scan interval %s)", cfg.HTTPAddr, cfg.ScanInterval)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
