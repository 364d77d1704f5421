package memstore

import (
	"context"
	"sort"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	return s.write(ctx, func() error {
		if _, ok := s.reports[r.ID]; ok {
			return storage.ErrDuplicate
		}
		s.reports[r.ID] = clone(r)
		return nil
	})
}

func (s *Store) GetReport(_ context.Context, id ID) (*models.Report, error) {
	var out *models.Report
	s.read(func() { out = clone(s.reports[id]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) ListReports(_ context.Context) ([]*models.Report, error) {
	var out []*models.Report
	s.read(func() { out = cloneAll(values(s.reports)) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteReport(ctx context.Context, id ID) error {
	return s.write(ctx, func() error {
		if _, ok := s.reports[id]; !ok {
			return storage.ErrNotFound
		}
		delete(s.reports, id)
		return nil
	})
}
