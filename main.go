package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rango/handlers"
	"rango/ui"
	"rango/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	if !cfg.EnvFile && cfg.Env != "production" {
		log.Info("no .env file found, continuing")
	}
	log.Info("starting rango", zap.String("environment", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the database connection pool
	dbPool, err := utils.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	store := utils.NewStore(dbPool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisPool, err := utils.OpenRedisPool(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisPool.Close()

	templates, err := ui.Templates()
	if err != nil {
		log.Fatal("failed to load templates", zap.Error(err))
	}

	app := &handlers.App{
		Store:      store,
		Redis:      redisPool,
		Log:        log,
		Templates:  templates,
		SessionTTL: cfg.SessionTTL,
	}
	if cfg.SendGridAPIKey != "" {
		app.Mailer = utils.NewMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.PublicURL+"/rango/login/")
	} else {
		log.Info("SENDGRID_API_KEY not set, welcome emails disabled")
	}
	if cfg.S3.Endpoint != "" {
		pictures, err := utils.NewPictureStore(cfg.S3)
		if err != nil {
			log.Fatal("failed to create picture store", zap.Error(err))
		}
		app.Pictures = pictures
	} else {
		log.Info("S3_ENDPOINT not set, profile pictures disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.Routes(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown server", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}
}
