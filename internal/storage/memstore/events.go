package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	return s.write(ctx, func() error {
		if _, ok := s.events[e.ID]; ok {
			return storage.ErrDuplicate
		}
		for _, other := range s.events {
			if other.JoinToken == e.JoinToken {
				return storage.ErrDuplicate
			}
		}
		s.events[e.ID] = clone(e)
		return nil
	})
}

func (s *Store) GetEvent(_ context.Context, id ID) (*models.Event, error) {
	var out *models.Event
	s.read(func() { out = clone(s.events[id]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) GetEventByJoinToken(_ context.Context, token string) (*models.Event, error) {
	var out *models.Event
	s.read(func() {
		for _, e := range s.events {
			if token != "" && e.JoinToken == token {
				out = clone(e)
				return
			}
		}
	})
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) ListEventsEndingAfter(_ context.Context, t time.Time) ([]*models.Event, error) {
	return s.filterEvents(func(e *models.Event) bool { return e.EndTime.After(t) }), nil
}

func (s *Store) ListEventsByOrganizer(_ context.Context, organizerID ID) ([]*models.Event, error) {
	return s.filterEvents(func(e *models.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *Store) filterEvents(match func(*models.Event) bool) []*models.Event {
	out := make([]*models.Event, 0)
	s.read(func() {
		for _, e := range s.events {
			if match(e) {
				out = append(out, clone(e))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	return s.write(ctx, func() error {
		cur, ok := s.events[e.ID]
		if !ok {
			return storage.ErrNotFound
		}
		next := clone(e)
		next.OrganizerID = cur.OrganizerID
		next.JoinToken = cur.JoinToken
		next.CreatedAt = cur.CreatedAt
		s.events[e.ID] = next
		return nil
	})
}

func (s *Store) DeleteEvent(ctx context.Context, id ID) error {
	return s.write(ctx, func() error {
		if _, ok := s.events[id]; !ok {
			return storage.ErrNotFound
		}
		delete(s.events, id)
		return nil
	})
}

func (s *Store) DeleteEventsByOrganizer(ctx context.Context, organizerID ID) (int64, error) {
	return s.deleteEvents(ctx, func(e *models.Event) bool { return e.OrganizerID == organizerID })
}

func (s *Store) DeleteEventsEndedBefore(ctx context.Context, t time.Time) (int64, error) {
	return s.deleteEvents(ctx, func(e *models.Event) bool { return e.EndTime.Before(t) })
}

func (s *Store) deleteEvents(ctx context.Context, match func(*models.Event) bool) (int64, error) {
	var n int64
	err := s.write(ctx, func() error {
		for id, e := range s.events {
			if match(e) {
				delete(s.events, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
