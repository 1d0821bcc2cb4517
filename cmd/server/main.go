package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/alcaldia-digital/reportes-api/internal/config"
	"github.com/alcaldia-digital/reportes-api/internal/database"
	"github.com/alcaldia-digital/reportes-api/internal/handler"
	"github.com/alcaldia-digital/reportes-api/internal/queue"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
	"github.com/alcaldia-digital/reportes-api/internal/router"
	"github.com/alcaldia-digital/reportes-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	}

	citizens := repository.NewCitizenRepo(db)
	staff := repository.NewStaffRepo(db)
	tokens := repository.NewTokenRepo(db)
	reports := repository.NewReportRepo(db)
	businesses := repository.NewBusinessRepo(db)
	offers := repository.NewOfferRepo(db)

	auth := service.NewAuthService(citizens, staff, tokens,
		cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, cfg.BcryptCost, log)
	events := service.NewEventPublisher(log)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), rlCfg, rdb)
	router.RegisterReports(e, handler.NewReportHandler(reports, events, log), cfg.JWTSecret, cacheCfg, rdb)
	router.RegisterDashboard(e, handler.NewDashboardHandler(reports, events, log), cfg.JWTSecret)
	router.RegisterMarketplace(e, handler.NewBusinessHandler(businesses, offers), handler.NewOfferHandler(offers),
		cfg.JWTSecret, cacheCfg, rdb)

	go queue.StartReportConsumer(log)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
