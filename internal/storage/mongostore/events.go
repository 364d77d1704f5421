package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

var byStartTime = options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	return insertOne(ctx, s.col(ColEvents), e)
}

func (s *Store) GetEvent(ctx context.Context, id ID) (*models.Event, error) {
	return findOne[models.Event](ctx, s.col(ColEvents), bson.M{"_id": id})
}

func (s *Store) GetEventByJoinToken(ctx context.Context, token string) (*models.Event, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return findOne[models.Event](ctx, s.col(ColEvents), bson.M{"join_token": token})
}

func (s *Store) ListEventsEndingAfter(ctx context.Context, t time.Time) ([]*models.Event, error) {
	return findMany[models.Event](ctx, s.col(ColEvents), bson.M{"end_time": bson.M{"$gt": t}}, byStartTime)
}

func (s *Store) ListEventsByOrganizer(ctx context.Context, organizerID ID) ([]*models.Event, error) {
	return findMany[models.Event](ctx, s.col(ColEvents), bson.M{"organizer_id": organizerID}, byStartTime)
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	return updateOne(ctx, s.col(ColEvents), bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"name":        e.Name,
		"description": e.Description,
		"location":    e.Location,
		"start_time":  e.StartTime,
		"end_time":    e.EndTime,
		"attendees":   nonNil(e.Attendees),
		"invited":     nonNil(e.Invited),
		"rejected":    nonNil(e.Rejected),
		"updated_at":  now(),
	}})
}

func nonNil(ids []ID) []ID {
	if ids == nil {
		return []ID{}
	}
	return ids
}

func (s *Store) DeleteEvent(ctx context.Context, id ID) error {
	return deleteOne(ctx, s.col(ColEvents), bson.M{"_id": id})
}

func (s *Store) DeleteEventsByOrganizer(ctx context.Context, organizerID ID) (int64, error) {
	return deleteMany(ctx, s.col(ColEvents), bson.M{"organizer_id": organizerID})
}

func (s *Store) DeleteEventsEndedBefore(ctx context.Context, t time.Time) (int64, error) {
	return deleteMany(ctx, s.col(ColEvents), bson.M{"end_time": bson.M{"$lt": t}})
}
