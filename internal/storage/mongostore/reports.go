package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
)

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	return insertOne(ctx, s.col(ColReports), r)
}

func (s *Store) GetReport(ctx context.Context, id ID) (*models.Report, error) {
	return findOne[models.Report](ctx, s.col(ColReports), bson.M{"_id": id})
}

func (s *Store) ListReports(ctx context.Context) ([]*models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.Report](ctx, s.col(ColReports), bson.M{}, opts)
}

func (s *Store) DeleteReport(ctx context.Context, id ID) error {
	return deleteOne(ctx, s.col(ColReports), bson.M{"_id": id})
}
