package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/diewo77/go-shop/auth"
	"github.com/diewo77/go-shop/internal/config"
	"github.com/diewo77/go-shop/internal/db"
	"github.com/diewo77/go-shop/internal/events"
	"github.com/diewo77/go-shop/internal/mailer"
	"github.com/diewo77/go-shop/view"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

const purgeInterval = 10 * time.Minute

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := newLogger(cfg.App.Dev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	dbConn, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if *migrateOnlyFlag {
		if err := migrate(dbConn, cfg); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed successfully")
		return
	}

	seedOpts := db.SeedOptions{
		SellerUsername: cfg.Seller.Username,
		SellerPassword: cfg.Seller.Password,
		DemoCatalog:    cfg.App.Seed,
	}

	if *seedOnlyFlag {
		seedOpts.DemoCatalog = true
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("seeding completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := migrate(dbConn, cfg); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed")
	}
	if err := db.Seed(dbConn, seedOpts); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	auth.SetSecret(cfg.Session.Secret)
	view.SetDevMode(cfg.App.Dev)
	view.SetShopName(cfg.Shop.Name)

	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		log.Fatal("media directory", zap.String("dir", cfg.Media.Dir), zap.Error(err))
	}

	publisher := newPublisher(cfg, log)
	defer func() { _ = publisher.Close() }()

	app := NewApp(Deps{
		DB:        dbConn,
		Config:    cfg,
		Log:       log,
		Sender:    newSender(cfg, log),
		Publisher: publisher,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go purgeCheckouts(ctx, app.Checkouts(), purgeInterval, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// migrate applies either the versioned SQL files or the gorm auto-migration.
func migrate(dbConn *gorm.DB, cfg *config.Config) error {
	if cfg.App.SQLMigrations {
		return db.RunSQLMigrations(cfg.Database, cfg.App.MigrationsDir)
	}
	return db.Migrate(dbConn)
}

func newSender(cfg *config.Config, log *zap.Logger) mailer.Sender {
	if !cfg.Mail.Enabled() {
		log.Warn("SMTP_HOST not set, e-mails are only logged")
		return mailer.LogSender{Logger: log}
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  time.Duration(cfg.Mail.Timeout) * time.Second,
	})
}

func newPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if cfg.AMQP.URL == "" {
		return events.NopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		log.Warn("order events disabled", zap.Error(err))
		return events.NopPublisher{}
	}
	return p
}
