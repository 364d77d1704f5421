package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

// wrapError maps driver errors onto storage errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, wrapError(err)
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cur.Close(ctx)

	out := make([]*T, 0)
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, cur.Err()
}

func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) error {
	_, err := col.InsertOne(ctx, doc)
	return wrapError(err)
}

// updateOne applies update to the document matching filter; no match is ErrNotFound.
func updateOne(ctx context.Context, col *mongo.Collection, filter, update interface{}) error {
	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, col *mongo.Collection, filter interface{}) error {
	res, err := col.DeleteOne(ctx, filter)
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, col *mongo.Collection, filter interface{}) (int64, error) {
	res, err := col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}
