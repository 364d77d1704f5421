// Package memstore is an in-process implementation of storage.Store.
//
// State lives in maps guarded by a RWMutex. Writes are serialized with the
// transaction lock, and a transaction restores a snapshot of every collection
// when its function fails. When a data directory is configured the state is
// written to disk after every committed write.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

type ID = storage.ID

const snapshotFile = "recipehub.json"

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users      map[ID]*models.User
	cooks      map[ID]*models.CookProfile
	guests     map[ID]*models.GuestProfile
	organizers map[ID]*models.OrganizerProfile
	moderators map[ID]*models.ModeratorRecord
	recipes    map[ID]*models.Recipe
	events     map[ID]*models.Event
	reports    map[ID]*models.Report

	persist *storage.JSONStore
}

var _ storage.Store = (*Store)(nil)

// New returns an empty, non-persistent store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

// Open returns a store backed by a snapshot file in dataDir, loading any
// existing state.
func Open(dataDir string) (*Store, error) {
	js, err := storage.NewJSONStore(dataDir, snapshotFile)
	if err != nil {
		return nil, fmt.Errorf("memstore: %w", err)
	}
	s := New()
	s.persist = js

	var snap snapshot
	if err := js.Load(&snap); err != nil {
		return nil, fmt.Errorf("memstore: load %s: %w", js.Path(), err)
	}
	s.restore(&snap)
	logging.Info().Str("component", "store").Str("path", js.Path()).
		Int("users", len(s.users)).Int("recipes", len(s.recipes)).Msg("memory store loaded")
	return s, nil
}

func (s *Store) reset() {
	s.users = make(map[ID]*models.User)
	s.cooks = make(map[ID]*models.CookProfile)
	s.guests = make(map[ID]*models.GuestProfile)
	s.organizers = make(map[ID]*models.OrganizerProfile)
	s.moderators = make(map[ID]*models.ModeratorRecord)
	s.recipes = make(map[ID]*models.Recipe)
	s.events = make(map[ID]*models.Event)
	s.reports = make(map[ID]*models.Report)
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) Cooks() storage.CookStore {
	return &profiles[models.CookProfile]{s: s, table: func() map[ID]*models.CookProfile { return s.cooks }, key: func(p *models.CookProfile) ID { return p.UserID }, setFavs: func(p *models.CookProfile, f []ID) { p.Favourites = f }}
}

func (s *Store) Guests() storage.GuestStore {
	return &profiles[models.GuestProfile]{s: s, table: func() map[ID]*models.GuestProfile { return s.guests }, key: func(p *models.GuestProfile) ID { return p.UserID }, setFavs: func(p *models.GuestProfile, f []ID) { p.Favourites = f }}
}

func (s *Store) Organizers() storage.OrganizerStore {
	return &profiles[models.OrganizerProfile]{s: s, table: func() map[ID]*models.OrganizerProfile { return s.organizers }, key: func(p *models.OrganizerProfile) ID { return p.UserID }, setFavs: func(p *models.OrganizerProfile, f []ID) { p.Favourites = f }}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction serializes fn against every other write and rolls all
// collections back if fn returns an error. Nested calls join the outer
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	before, err := s.encode()
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("memstore: snapshot: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		var snap snapshot
		if derr := bson.Unmarshal(before, &snap); derr != nil {
			return fmt.Errorf("memstore: rollback: %v (after %w)", derr, err)
		}
		s.mu.Lock()
		s.restore(&snap)
		s.mu.Unlock()
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	s.save()
	return nil
}

// write runs fn under the write lock. Outside a transaction it also takes
// the transaction lock and persists on success.
func (s *Store) write(ctx context.Context, fn func() error) error {
	tx := s.inTx(ctx)
	if !tx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	if !tx {
		s.save()
	}
	return nil
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// save must be called with mu held.
func (s *Store) save() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.snapshot()); err != nil {
		logging.Error().Err(err).Str("component", "store").Msg("memory store persist failed")
	}
}

type snapshot struct {
	Users      []*models.User             `bson:"users"`
	Cooks      []*models.CookProfile      `bson:"cooks"`
	Guests     []*models.GuestProfile     `bson:"guests"`
	Organizers []*models.OrganizerProfile `bson:"organizers"`
	Moderators []*models.ModeratorRecord  `bson:"moderators"`
	Recipes    []*models.Recipe           `bson:"recipes"`
	Events     []*models.Event            `bson:"events"`
	Reports    []*models.Report           `bson:"reports"`
}

func (s *Store) snapshot() *snapshot {
	return &snapshot{
		Users:      values(s.users),
		Cooks:      values(s.cooks),
		Guests:     values(s.guests),
		Organizers: values(s.organizers),
		Moderators: values(s.moderators),
		Recipes:    values(s.recipes),
		Events:     values(s.events),
		Reports:    values(s.reports),
	}
}

func (s *Store) encode() ([]byte, error) {
	return bson.Marshal(s.snapshot())
}

// restore must be called with mu held (or before the store is shared).
func (s *Store) restore(snap *snapshot) {
	s.reset()
	for _, v := range snap.Users {
		s.users[v.ID] = v
	}
	for _, v := range snap.Cooks {
		s.cooks[v.UserID] = v
	}
	for _, v := range snap.Guests {
		s.guests[v.UserID] = v
	}
	for _, v := range snap.Organizers {
		s.organizers[v.UserID] = v
	}
	for _, v := range snap.Moderators {
		s.moderators[v.ID] = v
	}
	for _, v := range snap.Recipes {
		s.recipes[v.ID] = v
	}
	for _, v := range snap.Events {
		s.events[v.ID] = v
	}
	for _, v := range snap.Reports {
		s.reports[v.ID] = v
	}
}

func values[T any](m map[ID]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// clone deep-copies a model through its bson encoding so callers never share
// memory with the store.
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memstore: clone %T: %v", v, err))
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("memstore: clone %T: %v", v, err))
	}
	return out
}

func cloneAll[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		out = append(out, clone(v))
	}
	return out
}
