package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-table-reservation/internal/config"
    "github.com/iliyamo/restaurant-table-reservation/internal/database"
    "github.com/iliyamo/restaurant-table-reservation/internal/handler"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/queue"
    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
    "github.com/iliyamo/restaurant-table-reservation/internal/router"
    "github.com/iliyamo/restaurant-table-reservation/internal/service"
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

    // Redis is optional: a nil client disables caching and rate limiting.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable, cache and rate limiting disabled")
    }

    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)
    tableRepo := repository.NewTableRepo(db)
    slotRepo := repository.NewSlotRepo(db)
    reservationRepo := repository.NewReservationRepo(db)

    booking := service.NewBookingService(
        tableRepo,
        slotRepo,
        service.NewSQLReservationStore(reservationRepo),
        userRepo,
        queue.NewEventNotifier(),
    )

    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
    bookingHandler := handler.NewBookingHandler(booking)
    staffHandler := handler.NewStaffHandler(booking)
    ownerHandler := handler.NewOwnerHandler(tableRepo, slotRepo)
    publicHandler := handler.NewPublicHandler(booking)

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    // The response cache is keyed by route+query, not by caller, so it
    // only wraps the unauthenticated public routes.  Registering it
    // globally would let a cache hit answer before JWTAuth runs.
    cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e, cacheMW)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterPublic(e, publicHandler, cacheMW)
    router.RegisterBooking(e, bookingHandler, cfg.JWTSecret)
    router.RegisterStaff(e, staffHandler, cfg.JWTSecret)
    router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)

    // background consumer writes reservation events to logs/reservation.log
    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("reservation consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
