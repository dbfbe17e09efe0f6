package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/marcussviniciusa/recantoverdev5/internal/config"
	"github.com/marcussviniciusa/recantoverdev5/internal/database"
	"github.com/marcussviniciusa/recantoverdev5/internal/handler"
	"github.com/marcussviniciusa/recantoverdev5/internal/middleware"
	"github.com/marcussviniciusa/recantoverdev5/internal/notify"
	"github.com/marcussviniciusa/recantoverdev5/internal/repository"
	"github.com/marcussviniciusa/recantoverdev5/internal/router"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	tableRepo := repository.NewTableRepo(db)
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	notifier := notify.NewPublisher(cfg.AMQPURL)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, notifier)
	tableHandler := handler.NewTableHandler(tableRepo, notifier)
	productHandler := handler.NewProductHandler(productRepo)
	orderHandler := handler.NewOrderHandler(orderRepo, tableRepo, productRepo, notifier)
	paymentHandler := handler.NewPaymentHandler(paymentRepo, orderRepo, tableRepo, notifier)
	notificationHandler := handler.NewNotificationHandler(notifier)

	e := echo.New()
	e.HideBanner = true

	// Redis backs the rate limiter and the browse cache; both degrade to
	// no-ops when the client is unavailable.
	rdb := config.NewRedisClient()
	if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled && rdb != nil {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}
	var browseCache echo.MiddlewareFunc
	if cacheCfg := config.LoadCacheConfig(); cacheCfg.Enabled && rdb != nil {
		browseCache = middleware.NewRedisCache(cacheCfg, rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterStaff(e, tableHandler, productHandler, orderHandler, notificationHandler, cfg.JWTSecret, browseCache)
	router.RegisterPayments(e, paymentHandler, cfg.JWTSecret)

	// Audit trail of everything published to the notifications exchange.
	go func() {
		if err := notify.StartNotificationConsumer(cfg.AMQPURL); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
