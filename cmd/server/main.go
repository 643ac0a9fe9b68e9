package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/config"
    "github.com/safegate/visitor-access/internal/database"
    "github.com/safegate/visitor-access/internal/handler"
    "github.com/safegate/visitor-access/internal/middleware"
    "github.com/safegate/visitor-access/internal/qr"
    "github.com/safegate/visitor-access/internal/queue"
    "github.com/safegate/visitor-access/internal/repository"
    "github.com/safegate/visitor-access/internal/router"
)

func main() {
    // .env is optional; real deployments set variables in the environment.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional: with a nil client the rate limiter and the
    // read cache both pass requests through untouched.
    rdb := config.NewRedisClient()
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)
    buildingRepo := repository.NewBuildingRepo(db)
    visitorRepo := repository.NewVisitorRepo(db)
    visitRepo := repository.NewVisitRepo(db)
    visitVisitorRepo := repository.NewVisitVisitorRepo(db)
    banRepo := repository.NewBanRepo(db)
    scanLogRepo := repository.NewScanLogRepo(db)

    issuer := qr.NewIssuer(cfg.QRPrefix, cfg.QRSuffixLen, time.Duration(cfg.QRExpiryHours)*time.Hour)

    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
    visitHandler := handler.NewVisitHandler(cfg, issuer, visitRepo, visitorRepo, visitVisitorRepo, buildingRepo, banRepo, scanLogRepo)
    scanHandler := handler.NewScanHandler(cfg, issuer, visitRepo, visitVisitorRepo, banRepo, scanLogRepo)
    banHandler := handler.NewBanHandler(cfg, banRepo)
    visitorHandler := handler.NewVisitorHandler(cfg, visitorRepo)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret, limiter)
    router.RegisterShared(e, banHandler, cfg.JWTSecret)
    router.RegisterHost(e, visitHandler, banHandler, visitorHandler, cfg.JWTSecret, cached)
    router.RegisterSecurity(e, scanHandler, cfg.JWTSecret, limiter)

    // Event fan-out consumer; reconnects on its own and never takes
    // the API down with it.
    go func() {
        if err := queue.StartVisitEventConsumer(); err != nil {
            log.Printf("visit event consumer stopped: %v", err)
        }
    }()

    // Periodic no-show sweep.  Scans enforce expiry on their own, so
    // this only converges the stored status for dashboards.
    go func() {
        grace := time.Duration(cfg.EntryGraceMin) * time.Minute
        ticker := time.NewTicker(time.Minute)
        defer ticker.Stop()
        for range ticker.C {
            ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
            if n, err := visitRepo.ExpireOverdue(ctx, grace); err != nil {
                log.Printf("expiry sweep failed: %v", err)
            } else if n > 0 {
                log.Printf("expiry sweep: %d visit(s) expired", n)
            }
            cancel()
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
