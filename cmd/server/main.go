package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/authz"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/config"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/handlers"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/sessions"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/memstore"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage/mongostore"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/supervisor"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("load config")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stdout})

	if err := run(cfg); err != nil {
		logging.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Warn().Err(err).Msg("close store")
		}
	}()

	revoker, closeRevoker, err := openRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRevoker()

	images, err := services.NewImageService(cfg.Uploads.Dir)
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return err
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = services.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.SupportEmail)
	} else {
		logging.Warn().Msg("no SendGrid key configured, emails will only be logged")
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecretOrDev(), cfg.Auth.TokenTTL, revoker)
	moderation := services.NewModerationService(store, images, services.ModerationConfig{
		WarningThreshold:      cfg.Moderation.WarningThreshold,
		AutoDeleteOnThreshold: cfg.Moderation.AutoDeleteOnThreshold,
	})

	router := handlers.NewRouter(handlers.Deps{
		Store:  store,
		Tokens: tokens,
		Authz:  enforcer,
		Auth: services.NewAuthService(store, tokens, mailer, services.AuthConfig{
			ClientURL:           cfg.Server.ClientURL,
			ModeratorSignupCode: cfg.Auth.ModeratorSignupCode,
			VerificationTTL:     cfg.Cleanup.UnverifiedTTL,
		}),
		Users:      services.NewUserService(store, images),
		Recipes:    services.NewRecipeService(store),
		Favorites:  services.NewFavoriteService(store),
		Events:     services.NewEventService(store, cfg.Server.ClientURL),
		Reports:    services.NewReportService(store, moderation),
		Moderation: moderation,
		Images:     images,
		Captcha: services.NewSiteVerifier(services.SiteVerifyConfig{
			Secret:   cfg.Recaptcha.Secret,
			Hostname: cfg.Recaptcha.Hostname,
		}),
		Mailer:      mailer,
		Cookie:      handlers.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxUploadMB: cfg.Uploads.MaxSizeMB,
		RateLimit: handlers.RateLimit{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Disabled: cfg.RateLimit.Disabled,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree("recipehub", supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	if cfg.Cleanup.Enabled {
		cleanup := services.NewCleanupService(store, images, services.CleanupConfig{
			UnverifiedTTL: cfg.Cleanup.UnverifiedTTL,
			EventGrace:    cfg.Cleanup.EventGrace,
		})
		tree.AddJobService(worker.NewCleanupRunner(cleanup, cfg.Cleanup.Interval))
	}

	logging.Info().Str("addr", cfg.Server.Address).Str("store", cfg.Store.Driver).Msg("recipe hub API starting")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		return memstore.Open(cfg.Store.DataDir)
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return mongostore.New(connectCtx, mongostore.Options{
		URI:          cfg.Mongo.URI,
		Database:     cfg.Mongo.Database,
		Transactions: cfg.Mongo.Transactions,
		ForceTLS12:   cfg.Mongo.ForceTLS12,
	})
}

// openRevoker prefers Redis so logouts survive restarts and are shared
// between instances.
func openRevoker(ctx context.Context, cfg *config.Config) (sessions.Revoker, func(), error) {
	if cfg.Redis.URL == "" {
		return sessions.NewMemoryRevoker(), func() {}, nil
	}
	r, err := sessions.NewRedisRevoker(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	return r, func() {
		if err := r.Close(); err != nil {
			logging.Warn().Err(err).Msg("close redis")
		}
	}, nil
}
