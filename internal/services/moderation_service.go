package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/metrics"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

const DefaultWarningThreshold = 3

var ErrModeratorsOnly = newError(ErrForbidden, "Moderator access required")

type ModerationConfig struct {
	WarningThreshold int
	// AutoDeleteOnThreshold deletes a user in the same transaction as the
	// warning that takes them to the threshold.
	AutoDeleteOnThreshold bool
}

type ModerationService struct {
	store  storage.Store
	images *ImageService
	cfg    ModerationConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewModerationService(store storage.Store, images *ImageService, cfg ModerationConfig) *ModerationService {
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = DefaultWarningThreshold
	}
	return &ModerationService{
		store:  store,
		images: images,
		cfg:    cfg,
		log:    logging.Component("moderation"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// actor loads the acting moderator.
func (s *ModerationService) actor(ctx context.Context, moderatorID primitive.ObjectID) (models.Actor, error) {
	u, err := getUser(ctx, s.store, moderatorID)
	if err != nil {
		return models.Actor{}, err
	}
	if u.Role != models.RoleModerator {
		return models.Actor{}, ErrModeratorsOnly
	}
	return models.Actor{ModeratorID: u.ID, ModeratorName: u.Name}, nil
}

// warnOutcome carries what a warning did so metrics are only counted after
// the surrounding transaction commits.
type warnOutcome struct {
	result  *models.WarningResult
	deleted *DeleteAccountResult
}

// AddWarning warns a user, consuming the referenced report when one is given.
func (s *ModerationService) AddWarning(ctx context.Context, moderatorID primitive.ObjectID, req models.WarningRequest) (*models.WarningResult, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	userID, _ := primitive.ObjectIDFromHex(req.UserID)
	var reportID *primitive.ObjectID
	if req.ReportID != "" {
		id, _ := primitive.ObjectIDFromHex(req.ReportID)
		reportID = &id
	}

	var out warnOutcome
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		if reportID != nil {
			if err := s.consumeReport(ctx, *reportID, userID); err != nil {
				return err
			}
		}
		out, err = s.warn(ctx, actor, userID, req.Reason, reportID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordWarning(out)
	return out.result, nil
}

// consumeReport deletes a report that is about userID. Runs inside the
// caller's transaction.
func (s *ModerationService) consumeReport(ctx context.Context, reportID, userID primitive.ObjectID) error {
	rep, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return mapReportErr(err)
	}
	if rep.ReportedUserID != userID {
		return invalidField("reportId", "Report is not about this user")
	}
	return mapReportErr(s.store.DeleteReport(ctx, reportID))
}

// warn appends a warning entry, recounts the user's warnings and notifies
// them. Runs inside the caller's transaction.
func (s *ModerationService) warn(ctx context.Context, actor models.Actor, userID primitive.ObjectID, reason string, reportID *primitive.ObjectID) (warnOutcome, error) {
	target, err := getUser(ctx, s.store, userID)
	if err != nil {
		return warnOutcome{}, err
	}
	if target.Role == models.RoleModerator {
		return warnOutcome{}, ErrModeratorProtected
	}

	entry := models.WarningEntry{
		ID:        primitive.NewObjectID(),
		Actor:     actor,
		UserID:    target.ID,
		UserName:  target.Name,
		UserRole:  target.Role,
		Reason:    reason,
		ReportID:  reportID,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendWarning(ctx, entry); err != nil {
		return warnOutcome{}, fmt.Errorf("append warning: %w", err)
	}
	warnings, err := s.store.WarningsForUser(ctx, target.ID)
	if err != nil {
		return warnOutcome{}, fmt.Errorf("count warnings: %w", err)
	}
	count := len(warnings)

	msg := models.NewInboxMessage(actor.ModeratorName, warningTitle(count),
		fmt.Sprintf("You have received a warning from the moderators: %s. You now have %d warning(s); accounts reaching %d warnings may be removed.",
			reason, count, s.cfg.WarningThreshold))
	if err := s.store.PushInboxMessage(ctx, target.ID, msg); err != nil {
		return warnOutcome{}, fmt.Errorf("notify user: %w", err)
	}

	out := warnOutcome{result: &models.WarningResult{
		UserID:           target.ID,
		WarningCount:     count,
		Threshold:        s.cfg.WarningThreshold,
		ThresholdReached: count >= s.cfg.WarningThreshold,
	}}
	if out.result.ThresholdReached && s.cfg.AutoDeleteOnThreshold {
		reason := fmt.Sprintf("Reached %d warnings", count)
		if out.deleted, err = s.deleteUser(ctx, actor, target, reason); err != nil {
			return warnOutcome{}, err
		}
		out.result.UserDeleted = true
	}
	return out, nil
}

func (s *ModerationService) recordWarning(out warnOutcome) {
	metrics.WarningsIssued.Inc()
	ev := s.log.Info().Str("user_id", out.result.UserID.Hex()).Int("warnings", out.result.WarningCount)
	if out.deleted != nil {
		metrics.UsersDeleted.WithLabelValues("threshold").Inc()
		s.removeImages(out.deleted.ImageURLs)
		ev = ev.Bool("user_deleted", true)
	}
	ev.Msg("warning issued")
}

// warningTitle names the inbox message for the n-th warning.
func warningTitle(n int) string {
	switch n {
	case 1:
		return "First Warning"
	case 2:
		return "Second Warning"
	case 3:
		return "Third Warning"
	default:
		return "Warning"
	}
}

// DeleteUser removes a non-moderator account and everything it owns, and
// records the deletion in the moderator's history.
func (s *ModerationService) DeleteUser(ctx context.Context, moderatorID, targetID primitive.ObjectID, req models.DeleteUserRequest) (*DeleteAccountResult, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}

	var res *DeleteAccountResult
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		target, err := getUser(ctx, s.store, targetID)
		if err != nil {
			return err
		}
		if target.Role == models.RoleModerator {
			return ErrModeratorProtected
		}
		if req.ReportID != "" {
			reportID, _ := primitive.ObjectIDFromHex(req.ReportID)
			if err := s.consumeReport(ctx, reportID, target.ID); err != nil {
				return err
			}
		}
		res, err = s.deleteUser(ctx, actor, target, req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.UsersDeleted.WithLabelValues("moderator").Inc()
	s.removeImages(res.ImageURLs)
	s.log.Info().Str("moderator_id", moderatorID.Hex()).Str("user_id", targetID.Hex()).
		Int64("recipes", res.RecipesDeleted).Int64("events", res.EventsDeleted).Msg("user deleted")
	return res, nil
}

func (s *ModerationService) deleteUser(ctx context.Context, actor models.Actor, target *models.User, reason string) (*DeleteAccountResult, error) {
	res, err := deleteAccountData(ctx, s.store, target)
	if err != nil {
		return nil, err
	}
	entry := models.DeletedUserEntry{
		ID:        primitive.NewObjectID(),
		Actor:     actor,
		UserID:    target.ID,
		UserName:  target.Name,
		UserEmail: target.Email,
		UserRole:  target.Role,
		Reason:    reason,
		DeletedAt: s.now(),
	}
	if err := s.store.AppendDeletedUser(ctx, entry); err != nil {
		return nil, fmt.Errorf("append deleted user: %w", err)
	}
	return res, nil
}

// DeleteRecipe removes any recipe, records it and tells the owner why.
func (s *ModerationService) DeleteRecipe(ctx context.Context, moderatorID, recipeID primitive.ObjectID, req models.DeleteContentRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	var image string
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		rec, err := getRecipe(ctx, s.store, recipeID)
		if err != nil {
			return err
		}
		ownerName := s.userName(ctx, rec.UserID)
		if err := mapRecipeErr(s.store.DeleteRecipe(ctx, recipeID)); err != nil {
			return err
		}
		if err := s.store.AppendDeletedRecipe(ctx, models.DeletedRecipeEntry{
			ID:          primitive.NewObjectID(),
			Actor:       actor,
			RecipeID:    rec.ID,
			RecipeTitle: rec.Title,
			OwnerID:     rec.UserID,
			OwnerName:   ownerName,
			Reason:      req.Reason,
			DeletedAt:   s.now(),
		}); err != nil {
			return fmt.Errorf("append deleted recipe: %w", err)
		}
		image = rec.Image
		return s.notify(ctx, rec.UserID, actor, "Recipe Removed",
			fmt.Sprintf("Your recipe %q was removed by a moderator: %s", rec.Title, req.Reason))
	})
	if err != nil {
		return err
	}
	metrics.ContentDeleted.WithLabelValues("recipe").Inc()
	if image != "" {
		s.removeImages([]string{image})
	}
	return nil
}

// DeleteEvent removes any event, records it and tells the organizer why.
func (s *ModerationService) DeleteEvent(ctx context.Context, moderatorID, eventID primitive.ObjectID, req models.DeleteContentRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		ev, err := getEvent(ctx, s.store, eventID)
		if err != nil {
			return err
		}
		organizerName := s.userName(ctx, ev.OrganizerID)
		if err := mapEventErr(s.store.DeleteEvent(ctx, eventID)); err != nil {
			return err
		}
		if err := s.store.AppendDeletedEvent(ctx, models.DeletedEventEntry{
			ID:            primitive.NewObjectID(),
			Actor:         actor,
			EventID:       ev.ID,
			EventName:     ev.Name,
			OrganizerID:   ev.OrganizerID,
			OrganizerName: organizerName,
			Reason:        req.Reason,
			DeletedAt:     s.now(),
		}); err != nil {
			return fmt.Errorf("append deleted event: %w", err)
		}
		return s.notify(ctx, ev.OrganizerID, actor, "Event Removed",
			fmt.Sprintf("Your event %q was removed by a moderator: %s", ev.Name, req.Reason))
	})
	if err != nil {
		return err
	}
	metrics.ContentDeleted.WithLabelValues("event").Inc()
	return nil
}

func (s *ModerationService) userName(ctx context.Context, id primitive.ObjectID) string {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return ""
	}
	return u.Name
}

// notify pushes an inbox message, ignoring recipients that no longer exist.
func (s *ModerationService) notify(ctx context.Context, userID primitive.ObjectID, actor models.Actor, title, body string) error {
	err := s.store.PushInboxMessage(ctx, userID, models.NewInboxMessage(actor.ModeratorName, title, body))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("notify user: %w", err)
	}
	return nil
}

// AddPassedReportHistory archives a report as passed and removes it.
func (s *ModerationService) AddPassedReportHistory(ctx context.Context, moderatorID primitive.ObjectID, req models.PassedReportRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	reportID, _ := primitive.ObjectIDFromHex(req.ReportID)
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		return s.passReport(ctx, actor, reportID)
	})
	if err != nil {
		return err
	}
	metrics.ReportsResolved.WithLabelValues(models.ResolvePass).Inc()
	return nil
}

// passReport deletes the report and appends its snapshot to passedReports.
// Runs inside the caller's transaction.
func (s *ModerationService) passReport(ctx context.Context, actor models.Actor, reportID primitive.ObjectID) error {
	rep, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return mapReportErr(err)
	}
	if err := mapReportErr(s.store.DeleteReport(ctx, reportID)); err != nil {
		return err
	}
	if err := s.store.AppendPassedReport(ctx, models.PassedReportFrom(actor, rep, s.now())); err != nil {
		return fmt.Errorf("append passed report: %w", err)
	}
	return nil
}

// AddDeletedUserHistory records a user deletion performed elsewhere.
func (s *ModerationService) AddDeletedUserHistory(ctx context.Context, moderatorID primitive.ObjectID, req models.DeletedUserHistoryRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	actor, err := s.actor(ctx, moderatorID)
	if err != nil {
		return err
	}
	userID, _ := primitive.ObjectIDFromHex(req.UserID)
	return s.store.AppendDeletedUser(ctx, models.DeletedUserEntry{
		ID:        primitive.NewObjectID(),
		Actor:     actor,
		UserID:    userID,
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		UserRole:  req.UserRole,
		Reason:    req.Reason,
		DeletedAt: s.now(),
	})
}

// AddDeletedRecipeHistory records a recipe deletion performed elsewhere.
func (s *ModerationService) AddDeletedRecipeHistory(ctx context.Context, moderatorID primitive.ObjectID, req models.DeletedRecipeHistoryRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	actor, err := s.actor(ctx, moderatorID)
	if err != nil {
		return err
	}
	recipeID, _ := primitive.ObjectIDFromHex(req.RecipeID)
	ownerID, _ := primitive.ObjectIDFromHex(req.OwnerID)
	return s.store.AppendDeletedRecipe(ctx, models.DeletedRecipeEntry{
		ID:          primitive.NewObjectID(),
		Actor:       actor,
		RecipeID:    recipeID,
		RecipeTitle: req.RecipeTitle,
		OwnerID:     ownerID,
		OwnerName:   req.OwnerName,
		Reason:      req.Reason,
		DeletedAt:   s.now(),
	})
}

// AddDeletedEventHistory records an event deletion performed elsewhere.
func (s *ModerationService) AddDeletedEventHistory(ctx context.Context, moderatorID primitive.ObjectID, req models.DeletedEventHistoryRequest) error {
	if err := checkFields(req.Validate()); err != nil {
		return err
	}
	actor, err := s.actor(ctx, moderatorID)
	if err != nil {
		return err
	}
	eventID, _ := primitive.ObjectIDFromHex(req.EventID)
	organizerID, _ := primitive.ObjectIDFromHex(req.OrganizerID)
	return s.store.AppendDeletedEvent(ctx, models.DeletedEventEntry{
		ID:            primitive.NewObjectID(),
		Actor:         actor,
		EventID:       eventID,
		EventName:     req.EventName,
		OrganizerID:   organizerID,
		OrganizerName: req.OrganizerName,
		Reason:        req.Reason,
		DeletedAt:     s.now(),
	})
}

// History returns the moderator's own record, empty if nothing was logged yet.
func (s *ModerationService) History(ctx context.Context, moderatorID primitive.ObjectID) (*models.ModeratorRecord, error) {
	actor, err := s.actor(ctx, moderatorID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.GetModerator(ctx, moderatorID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.ModeratorRecord{
			ID:             moderatorID,
			Name:           actor.ModeratorName,
			DeletedRecipes: []models.DeletedRecipeEntry{},
			DeletedUsers:   []models.DeletedUserEntry{},
			DeletedEvents:  []models.DeletedEventEntry{},
			Warnings:       []models.WarningEntry{},
			PassedReports:  []models.PassedReportEntry{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get moderator record: %w", err)
	}
	return rec, nil
}

// Warnings lists every warning issued to userID, oldest first.
func (s *ModerationService) Warnings(ctx context.Context, userID primitive.ObjectID) ([]models.WarningEntry, error) {
	ws, err := s.store.WarningsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	if ws == nil {
		ws = []models.WarningEntry{}
	}
	return ws, nil
}

// ListUsers returns every non-moderator account with its warning count.
func (s *ModerationService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	counts, err := s.store.WarningCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count warnings: %w", err)
	}
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleModerator {
			continue
		}
		out = append(out, models.UserSummary{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			IsVerified:   u.IsVerified,
			WarningCount: counts[u.ID],
			CreatedAt:    u.CreatedAt,
		})
	}
	return out, nil
}

func (s *ModerationService) removeImages(urls []string) {
	if s.images != nil && len(urls) > 0 {
		s.images.RemoveURLs(urls)
	}
}

func mapReportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return ErrReportNotFound
	}
	return fmt.Errorf("report store: %w", err)
}
