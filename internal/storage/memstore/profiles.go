package memstore

import (
	"context"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// profiles serves the three role profile tables with one implementation.
type profiles[P any] struct {
	s       *Store
	table   func() map[ID]*P
	key     func(*P) ID
	setFavs func(*P, []ID)
}

func (p *profiles[P]) Create(ctx context.Context, prof *P) error {
	return p.s.write(ctx, func() error {
		t := p.table()
		id := p.key(prof)
		if _, ok := t[id]; ok {
			return storage.ErrDuplicate
		}
		t[id] = clone(prof)
		return nil
	})
}

func (p *profiles[P]) Get(_ context.Context, userID ID) (*P, error) {
	var out *P
	p.s.read(func() { out = clone(p.table()[userID]) })
	if out == nil {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

func (p *profiles[P]) Update(ctx context.Context, prof *P) error {
	return p.s.write(ctx, func() error {
		t := p.table()
		id := p.key(prof)
		if _, ok := t[id]; !ok {
			return storage.ErrNotFound
		}
		t[id] = clone(prof)
		return nil
	})
}

func (p *profiles[P]) SetFavourites(ctx context.Context, userID ID, favs []ID) error {
	return p.s.write(ctx, func() error {
		cur, ok := p.table()[userID]
		if !ok {
			return storage.ErrNotFound
		}
		p.setFavs(cur, append([]ID{}, favs...))
		return nil
	})
}

func (p *profiles[P]) Delete(ctx context.Context, userID ID) error {
	return p.s.write(ctx, func() error {
		t := p.table()
		if _, ok := t[userID]; !ok {
			return storage.ErrNotFound
		}
		delete(t, userID)
		return nil
	})
}
