package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tasksur/tasksur/internal/config"
	"github.com/tasksur/tasksur/internal/database"
	"github.com/tasksur/tasksur/internal/handler"
	"github.com/tasksur/tasksur/internal/middleware"
	"github.com/tasksur/tasksur/internal/queue"
	"github.com/tasksur/tasksur/internal/repository"
	"github.com/tasksur/tasksur/internal/router"
	"github.com/tasksur/tasksur/internal/service"
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	tasks := repository.NewTaskRepo(db)
	offers := repository.NewOfferRepo(db)
	categories := repository.NewCategoryRepo(db)
	reviews := repository.NewReviewRepo(db)
	messages := repository.NewMessageRepo(db)
	notifications := repository.NewNotificationRepo(db)
	payments := repository.NewPaymentRepo(db)

	paypal := service.NewPayPalClient(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(cfg.Env)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))

	// Redis is optional: without it the rate limiter and the task
	// listing cache simply stay off.
	rdb := config.NewRedisClient()
	var cache echo.MiddlewareFunc
	if rdb != nil {
		rlCfg := config.LoadRateLimitConfig()
		if rlCfg.Enabled {
			e.Use(middleware.NewTokenBucket(rlCfg, rdb))
		}
		cacheCfg := config.LoadCacheConfig()
		if cacheCfg.Enabled {
			cache = middleware.NewRedisCache(cacheCfg, rdb)
		}
	}

	auth := middleware.Authenticate(cfg.JWTSecret, users)
	optionalAuth := middleware.AuthenticateOptional(cfg.JWTSecret, users)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, sessions), auth, optionalAuth)
	router.RegisterTasks(e, handler.NewTaskHandler(tasks), tasks, auth, cache)
	router.RegisterOffers(e, handler.NewOfferHandler(offers, tasks, users, notifications), offers, tasks, auth)
	router.RegisterCategories(e, handler.NewCategoryHandler(categories), auth)
	router.RegisterUsers(e, handler.NewUserHandler(users, tasks, reviews), auth)
	router.RegisterMessages(e, handler.NewMessageHandler(messages, users), tasks, auth)
	router.RegisterNotifications(e, handler.NewNotificationHandler(notifications), auth)
	router.RegisterPayments(e, handler.NewPaymentHandler(payments), handler.NewPayPalHandler(paypal), auth)

	// Expired refresh sessions are purged hourly.
	go func() {
		for range time.Tick(time.Hour) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := sessions.DeleteExpired(ctx); err != nil {
				log.Printf("session purge: %v", err)
			}
			cancel()
		}
	}()

	// The email consumer keeps retrying its broker connection in the
	// background; a missing broker never blocks the API.
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
