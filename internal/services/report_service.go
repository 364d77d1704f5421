package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/metrics"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

var ErrReportersOnly = newError(ErrForbidden, "Moderators cannot submit reports")

type ReportService struct {
	store      storage.Store
	moderation *ModerationService
	log        zerolog.Logger
	now        func() time.Time
}

func NewReportService(store storage.Store, moderation *ModerationService) *ReportService {
	return &ReportService{
		store:      store,
		moderation: moderation,
		log:        logging.Component("reports"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SubmitReport files a report against another user, snapshotting both
// identities and the recipe title at submission time.
func (s *ReportService) SubmitReport(ctx context.Context, reporterID primitive.ObjectID, req models.SubmitReportRequest) (*models.Report, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}
	reportedID, _ := primitive.ObjectIDFromHex(req.ReportedUserID)
	if reportedID == reporterID {
		return nil, invalidField("reportedUserId", "You cannot report yourself")
	}

	reporter, err := getUser(ctx, s.store, reporterID)
	if err != nil {
		return nil, err
	}
	if !reporter.Role.IsCGE() {
		return nil, ErrReportersOnly
	}
	reported, err := getUser(ctx, s.store, reportedID)
	if err != nil {
		return nil, err
	}
	if reported.Role == models.RoleModerator {
		return nil, invalidField("reportedUserId", "Moderators cannot be reported")
	}

	rep := &models.Report{
		ID:               primitive.NewObjectID(),
		ReporterID:       reporter.ID,
		ReporterName:     reporter.Name,
		ReporterRole:     reporter.Role,
		ReportedUserID:   reported.ID,
		ReportedUserName: reported.Name,
		ReportedUserRole: reported.Role,
		Title:            req.Title,
		Reason:           req.Reason,
		CreatedAt:        s.now(),
	}
	if req.RecipeID != "" {
		recipeID, _ := primitive.ObjectIDFromHex(req.RecipeID)
		rec, err := getRecipe(ctx, s.store, recipeID)
		if err != nil {
			return nil, err
		}
		if rec.UserID != reported.ID {
			return nil, invalidField("recipeId", "Recipe does not belong to the reported user")
		}
		rep.RecipeID = &rec.ID
		rep.RecipeName = rec.Title
	}

	if err := s.store.CreateReport(ctx, rep); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	metrics.ReportsSubmitted.Inc()
	s.log.Info().Str("report_id", rep.ID.Hex()).Str("reported_user_id", reported.ID.Hex()).Msg("report submitted")
	return rep, nil
}

func (s *ReportService) ListReports(ctx context.Context) ([]*models.Report, error) {
	return s.store.ListReports(ctx)
}

// DeleteReport dismisses a report. It is archived as passed so every removal
// leaves a trace in the moderator's history.
func (s *ReportService) DeleteReport(ctx context.Context, moderatorID, reportID primitive.ObjectID) error {
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.moderation.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		return s.moderation.passReport(ctx, actor, reportID)
	})
	if err != nil {
		return err
	}
	metrics.ReportsResolved.WithLabelValues(models.ResolvePass).Inc()
	return nil
}

// ResolveReport consumes a report by passing it or turning it into a warning.
// The report removal and its history entry commit together.
func (s *ReportService) ResolveReport(ctx context.Context, moderatorID, reportID primitive.ObjectID, req models.ResolveReportRequest) (*models.ResolveReportResult, error) {
	if err := checkFields(req.Validate()); err != nil {
		return nil, err
	}

	res := &models.ResolveReportResult{Action: req.Action}
	var warned warnOutcome
	err := s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		actor, err := s.moderation.actor(ctx, moderatorID)
		if err != nil {
			return err
		}
		if req.Action == models.ResolvePass {
			return s.moderation.passReport(ctx, actor, reportID)
		}

		rep, err := s.store.GetReport(ctx, reportID)
		if err != nil {
			return mapReportErr(err)
		}
		if err := mapReportErr(s.store.DeleteReport(ctx, reportID)); err != nil {
			return err
		}
		reason := req.Reason
		if reason == "" {
			reason = rep.Reason
		}
		warned, err = s.moderation.warn(ctx, actor, rep.ReportedUserID, reason, &rep.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ReportsResolved.WithLabelValues(req.Action).Inc()
	if warned.result != nil {
		s.moderation.recordWarning(warned)
		res.Warning = warned.result
	}
	return res, nil
}
