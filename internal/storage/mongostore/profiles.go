package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// profiles serves one role profile collection; documents are keyed by user id.
type profiles[P any] struct {
	col *mongo.Collection
	key func(*P) ID
}

func (p *profiles[P]) Create(ctx context.Context, prof *P) error {
	return insertOne(ctx, p.col, prof)
}

func (p *profiles[P]) Get(ctx context.Context, userID ID) (*P, error) {
	return findOne[P](ctx, p.col, bson.M{"_id": userID})
}

func (p *profiles[P]) Update(ctx context.Context, prof *P) error {
	res, err := p.col.ReplaceOne(ctx, bson.M{"_id": p.key(prof)}, prof)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *profiles[P]) SetFavourites(ctx context.Context, userID ID, favs []ID) error {
	if favs == nil {
		favs = []ID{}
	}
	return updateOne(ctx, p.col, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"favourites": favs, "updated_at": now()},
	})
}

func (p *profiles[P]) Delete(ctx context.Context, userID ID) error {
	return deleteOne(ctx, p.col, bson.M{"_id": userID})
}
