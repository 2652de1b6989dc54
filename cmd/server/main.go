// Command server runs the creative marketplace HTTP API.
//
//	@title						Creative Marketplace API
//	@version					1.0
//	@description				Marketplace connecting clients with verified creatives: discovery, bookings, contracts, chat and product orders.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-creative-marketplace/docs"
	"github.com/tbourn/go-creative-marketplace/internal/auth"
	"github.com/tbourn/go-creative-marketplace/internal/config"
	httpapi "github.com/tbourn/go-creative-marketplace/internal/http"
	"github.com/tbourn/go-creative-marketplace/internal/mailer"
	"github.com/tbourn/go-creative-marketplace/internal/notify"
	"github.com/tbourn/go-creative-marketplace/internal/observability"
	"github.com/tbourn/go-creative-marketplace/internal/repo"
	"github.com/tbourn/go-creative-marketplace/internal/services"
	"github.com/tbourn/go-creative-marketplace/internal/sysutil"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	version := sysutil.Version()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(repo.Options{
		Driver:  cfg.DB.Driver,
		Path:    cfg.DB.Path,
		DSN:     cfg.DB.URL,
		Tracing: cfg.OTEL.Enabled,
		LogSQL:  cfg.DB.LogSQL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if cfg.SeedCatalog {
		seed(ctx, db)
	}

	deps := httpapi.Deps{
		Tokens:    auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL),
		Mailer:    newMailer(cfg.Mail),
		Publisher: notify.Nop{},
	}
	if cfg.Redis.Addr != "" {
		rdb := notify.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
		}
		deps.Publisher = &notify.RedisPublisher{Client: rdb}
	}

	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("db", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newMailer(cfg config.MailConfig) mailer.Sender {
	if cfg.Provider == "sendgrid" {
		return mailer.NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName)
	}
	return mailer.LogSender{}
}

func seed(ctx context.Context, db *gorm.DB) {
	n, err := (&services.CatalogService{DB: db}).Seed(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("seed catalog")
	}
	log.Info().Int("industries", n).Msg("catalog seeded")
}
