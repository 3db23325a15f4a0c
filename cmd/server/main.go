package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/config"
	"github.com/stayforge/room-booking-api/internal/database"
	"github.com/stayforge/room-booking-api/internal/handler"
	"github.com/stayforge/room-booking-api/internal/middleware"
	"github.com/stayforge/room-booking-api/internal/queue"
	"github.com/stayforge/room-booking-api/internal/repository"
	"github.com/stayforge/room-booking-api/internal/router"
	"github.com/stayforge/room-booking-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the public response cache and rate limiter. A nil client
	// disables both rather than blocking startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	ledger := repository.NewAvailabilityRepo(db)
	bookings := repository.NewBookingRepo(db)

	bookingSvc := service.NewBookingService(db, rooms, ledger, bookings)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	roomH := handler.NewRoomHandler(rooms)
	bookingH := handler.NewBookingHandler(bookingSvc)
	adminRoomH := handler.NewAdminRoomHandler(rooms)
	adminAvailH := handler.NewAdminAvailabilityHandler(rooms, ledger)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, roomH,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminRoomH, adminAvailH, cfg.JWTSecret)

	// The consumer reconnects on its own; a terminal error only loses the
	// booking log tail, not bookings.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
