package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) GetModerator(_ context.Context, id ID) (*models.ModeratorRecord, error) {
	var out *models.ModeratorRecord
	s.read(func() { out = clone(s.moderators[id]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) EnsureModerator(ctx context.Context, id ID, name string) (*models.ModeratorRecord, error) {
	var out *models.ModeratorRecord
	err := s.write(ctx, func() error {
		out = clone(s.moderatorRecord(id, name))
		return nil
	})
	return out, err
}

// moderatorRecord returns the record for id, creating it on first use. Must
// be called with mu held.
func (s *Store) moderatorRecord(id ID, name string) *models.ModeratorRecord {
	m, ok := s.moderators[id]
	if !ok {
		now := time.Now().UTC()
		m = &models.ModeratorRecord{
			ID:             id,
			Name:           name,
			DeletedRecipes: []models.DeletedRecipeEntry{},
			DeletedUsers:   []models.DeletedUserEntry{},
			DeletedEvents:  []models.DeletedEventEntry{},
			Warnings:       []models.WarningEntry{},
			PassedReports:  []models.PassedReportEntry{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		s.moderators[id] = m
	}
	return m
}

func (s *Store) appendEntry(ctx context.Context, actor models.Actor, add func(*models.ModeratorRecord)) error {
	return s.write(ctx, func() error {
		m := s.moderatorRecord(actor.ModeratorID, actor.ModeratorName)
		add(m)
		m.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *Store) AppendDeletedRecipe(ctx context.Context, e models.DeletedRecipeEntry) error {
	return s.appendEntry(ctx, e.Actor, func(m *models.ModeratorRecord) { m.DeletedRecipes = append(m.DeletedRecipes, e) })
}

func (s *Store) AppendDeletedUser(ctx context.Context, e models.DeletedUserEntry) error {
	return s.appendEntry(ctx, e.Actor, func(m *models.ModeratorRecord) { m.DeletedUsers = append(m.DeletedUsers, e) })
}

func (s *Store) AppendDeletedEvent(ctx context.Context, e models.DeletedEventEntry) error {
	return s.appendEntry(ctx, e.Actor, func(m *models.ModeratorRecord) { m.DeletedEvents = append(m.DeletedEvents, e) })
}

func (s *Store) AppendWarning(ctx context.Context, e models.WarningEntry) error {
	return s.appendEntry(ctx, e.Actor, func(m *models.ModeratorRecord) { m.Warnings = append(m.Warnings, e) })
}

func (s *Store) AppendPassedReport(ctx context.Context, e models.PassedReportEntry) error {
	return s.appendEntry(ctx, e.Actor, func(m *models.ModeratorRecord) { m.PassedReports = append(m.PassedReports, e) })
}

func (s *Store) WarningsForUser(_ context.Context, userID ID) ([]models.WarningEntry, error) {
	out := make([]models.WarningEntry, 0)
	s.read(func() {
		for _, m := range s.moderators {
			for _, w := range m.Warnings {
				if w.UserID == userID {
					out = append(out, w)
				}
			}
		}
	})
	sortWarnings(out)
	return out, nil
}

func (s *Store) WarningCounts(_ context.Context) (map[ID]int, error) {
	out := make(map[ID]int)
	s.read(func() {
		for _, m := range s.moderators {
			for _, w := range m.Warnings {
				out[w.UserID]++
			}
		}
	})
	return out, nil
}

func sortWarnings(ws []models.WarningEntry) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].CreatedAt.Before(ws[j].CreatedAt) })
}
