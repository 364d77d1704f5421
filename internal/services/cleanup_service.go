package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/metrics"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

type CleanupConfig struct {
	// UnverifiedTTL is how long an account may stay unverified.
	UnverifiedTTL time.Duration
	// EventGrace keeps finished events around for a while after they end.
	EventGrace time.Duration
}

type SweepResult struct {
	UsersDeleted  int   `json:"usersDeleted"`
	EventsDeleted int64 `json:"eventsDeleted"`
}

// CleanupService removes stale unverified accounts and finished events.
type CleanupService struct {
	store  storage.Store
	images *ImageService
	cfg    CleanupConfig
	log    zerolog.Logger
}

func NewCleanupService(store storage.Store, images *ImageService, cfg CleanupConfig) *CleanupService {
	if cfg.UnverifiedTTL <= 0 {
		cfg.UnverifiedTTL = DefaultVerificationTTL
	}
	return &CleanupService{
		store:  store,
		images: images,
		cfg:    cfg,
		log:    logging.Component("cleanup"),
	}
}

// Sweep runs one cleanup pass as of now. Each stale account is removed in
// its own transaction so one failure does not block the rest.
func (s *CleanupService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	res := &SweepResult{}

	stale, err := s.store.ListUnverifiedBefore(ctx, now.Add(-s.cfg.UnverifiedTTL))
	if err != nil {
		metrics.CleanupRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list unverified users: %w", err)
	}
	var errs []error
	for _, u := range stale {
		var deleted *DeleteAccountResult
		err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			deleted, err = deleteAccountData(ctx, s.store, u)
			return err
		})
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("delete user %s: %w", u.ID.Hex(), err))
			continue
		}
		res.UsersDeleted++
		metrics.UsersDeleted.WithLabelValues("unverified").Inc()
		if s.images != nil {
			s.images.RemoveURLs(deleted.ImageURLs)
		}
	}

	n, err := s.store.DeleteEventsEndedBefore(ctx, now.Add(-s.cfg.EventGrace))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete finished events: %w", err))
	}
	res.EventsDeleted = n

	if err := errors.Join(errs...); err != nil {
		metrics.CleanupRuns.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Int("users", res.UsersDeleted).Int64("events", res.EventsDeleted).Msg("cleanup sweep finished with errors")
		return res, err
	}
	metrics.CleanupRuns.WithLabelValues("ok").Inc()
	s.log.Info().Int("users", res.UsersDeleted).Int64("events", res.EventsDeleted).Msg("cleanup sweep finished")
	return res, nil
}
