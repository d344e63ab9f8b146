package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/room-reservation/internal/config"   // Internal config loader
	"github.com/iliyamo/room-reservation/internal/database" // MySQL pool
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/router" // Internal router setup
	"github.com/iliyamo/room-reservation/internal/schedule"
	queue_publisher "github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	rules := repository.NewRuleRepo(db)
	reservations := repository.NewReservationRepo(db)
	audits := repository.NewAuditRepo(db)
	notifications := repository.NewNotificationRepo(db)

	var publish schedule.PublishFunc
	if cfg.AMQPURL != "" {
		publish = queue_publisher.PublishReservationDecided
	}
	engine := schedule.NewEngine(db, reservations, rooms, rules, audits, notifications, publish)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(rooms, engine.Detector()))
	router.RegisterReservations(e,
		handler.NewReservationHandler(engine, reservations),
		handler.NewInboxHandler(notifications),
		cfg.JWTSecret)
	router.RegisterAdmin(e,
		handler.NewAdminDecisionHandler(engine, reservations, cfg.PendingLimit),
		handler.NewAdminRegistryHandler(db, rooms, rules, reservations, audits),
		handler.NewAdminUsersHandler(db, users, tokens, audits, notifications),
		handler.NewAdminAuditHandler(audits),
		cfg.JWTSecret)

	// Decision events land in logs/decisions.log; the consumer reconnects
	// across broker outages on its own.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartDecisionConsumer(); err != nil {
				log.Printf("decision consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
