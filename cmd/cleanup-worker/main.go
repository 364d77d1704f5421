// Command cleanup-worker exposes the cleanup sweep over HTTP for external
// schedulers. Each POST /sweep runs one pass.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/config"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("open store")
		os.Exit(1)
	}
	defer store.Close(context.Background())

	images, err := services.NewImageService(cfg.Uploads.Dir)
	if err != nil {
		logging.Error().Err(err).Msg("open uploads dir")
		os.Exit(1)
	}
	cleanup := services.NewCleanupService(store, images, services.CleanupConfig{
		UnverifiedTTL: cfg.Cleanup.UnverifiedTTL,
		EventGrace:    cfg.Cleanup.EventGrace,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(cleanup),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree := supervisor.NewTree("cleanup-worker", supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.Address).Msg("cleanup worker listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("cleanup worker stopped with error")
		os.Exit(1)
	}
}

func newRouter(sweeper worker.Sweeper) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.NewMessageResponse("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/sweep", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		res, err := sweeper.Sweep(ctx, time.Now().UTC())
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("sweep failed")
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Sweep failed"))
			return
		}
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(res))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
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
