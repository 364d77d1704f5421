package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.write(ctx, func() error {
		if _, ok := s.users[u.ID]; ok {
			return storage.ErrDuplicate
		}
		if s.findUser(func(x *models.User) bool { return strings.EqualFold(x.Email, u.Email) }) != nil {
			return storage.ErrDuplicate
		}
		s.users[u.ID] = clone(u)
		return nil
	})
}

// findUser must be called with mu held.
func (s *Store) findUser(match func(*models.User) bool) *models.User {
	for _, u := range s.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (s *Store) lookupUser(match func(*models.User) bool) (*models.User, error) {
	var out *models.User
	s.read(func() { out = clone(s.findUser(match)) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id ID) (*models.User, error) {
	var out *models.User
	s.read(func() { out = clone(s.users[id]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.lookupUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByVerificationToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return s.lookupUser(func(u *models.User) bool { return u.VerificationToken == token })
}

func (s *Store) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return s.lookupUser(func(u *models.User) bool { return u.ResetPasswordToken == token })
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return s.write(ctx, func() error {
		cur, ok := s.users[u.ID]
		if !ok {
			return storage.ErrNotFound
		}
		if other := s.findUser(func(x *models.User) bool {
			return x.ID != u.ID && strings.EqualFold(x.Email, u.Email)
		}); other != nil {
			return storage.ErrDuplicate
		}
		next := clone(u)
		next.Inbox = cur.Inbox
		s.users[u.ID] = next
		return nil
	})
}

func (s *Store) DeleteUser(ctx context.Context, id ID) error {
	return s.write(ctx, func() error {
		if _, ok := s.users[id]; !ok {
			return storage.ErrNotFound
		}
		delete(s.users, id)
		return nil
	})
}

func (s *Store) ListUsers(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	s.read(func() { out = cloneAll(values(s.users)) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListUnverifiedBefore(_ context.Context, cutoff time.Time) ([]*models.User, error) {
	out := make([]*models.User, 0)
	s.read(func() {
		for _, u := range s.users {
			if !u.IsVerified && u.CreatedAt.Before(cutoff) {
				out = append(out, clone(u))
			}
		}
	})
	return out, nil
}

func (s *Store) PushInboxMessage(ctx context.Context, userID ID, msg models.InboxMessage) error {
	return s.write(ctx, func() error {
		u, ok := s.users[userID]
		if !ok {
			return storage.ErrNotFound
		}
		u.Inbox = append(u.Inbox, msg)
		return nil
	})
}

func (s *Store) MarkInboxMessageRead(ctx context.Context, userID, msgID ID) error {
	return s.write(ctx, func() error {
		u, ok := s.users[userID]
		if !ok {
			return storage.ErrNotFound
		}
		for i := range u.Inbox {
			if u.Inbox[i].ID == msgID {
				u.Inbox[i].Read = true
				return nil
			}
		}
		return storage.ErrNotFound
	})
}

func (s *Store) DeleteInboxMessage(ctx context.Context, userID, msgID ID) error {
	return s.write(ctx, func() error {
		u, ok := s.users[userID]
		if !ok {
			return storage.ErrNotFound
		}
		for i := range u.Inbox {
			if u.Inbox[i].ID == msgID {
				u.Inbox = append(u.Inbox[:i], u.Inbox[i+1:]...)
				return nil
			}
		}
		return storage.ErrNotFound
	})
}
