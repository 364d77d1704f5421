package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
)

// history array fields of a moderator record.
const (
	fieldDeletedRecipes = "deleted_recipes"
	fieldDeletedUsers   = "deleted_users"
	fieldDeletedEvents  = "deleted_events"
	fieldWarnings       = "warnings"
	fieldPassedReports  = "passed_reports"
)

var historyFields = []string{
	fieldDeletedRecipes, fieldDeletedUsers, fieldDeletedEvents, fieldWarnings, fieldPassedReports,
}

func (s *Store) GetModerator(ctx context.Context, id ID) (*models.ModeratorRecord, error) {
	return findOne[models.ModeratorRecord](ctx, s.col(ColModerators), bson.M{"_id": id})
}

// insertDefaults seeds a new record; skip names the field being pushed in
// the same update.
func insertDefaults(name, skip string) bson.M {
	t := now()
	out := bson.M{"name": name, "created_at": t}
	for _, f := range historyFields {
		if f != skip {
			out[f] = bson.A{}
		}
	}
	return out
}

func (s *Store) EnsureModerator(ctx context.Context, id ID, name string) (*models.ModeratorRecord, error) {
	_, err := s.col(ColModerators).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$setOnInsert": insertDefaults(name, ""),
		"$set":         bson.M{"updated_at": now()},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return nil, wrapError(err)
	}
	return s.GetModerator(ctx, id)
}

// appendEntry pushes entry onto field, creating the record on first use.
func (s *Store) appendEntry(ctx context.Context, actor models.Actor, field string, entry interface{}) error {
	update := bson.M{
		"$push":        bson.M{field: entry},
		"$set":         bson.M{"updated_at": now()},
		"$setOnInsert": insertDefaults(actor.ModeratorName, field),
	}
	_, err := s.col(ColModerators).UpdateOne(ctx, bson.M{"_id": actor.ModeratorID}, update, options.Update().SetUpsert(true))
	return wrapError(err)
}

func (s *Store) AppendDeletedRecipe(ctx context.Context, e models.DeletedRecipeEntry) error {
	return s.appendEntry(ctx, e.Actor, fieldDeletedRecipes, e)
}

func (s *Store) AppendDeletedUser(ctx context.Context, e models.DeletedUserEntry) error {
	return s.appendEntry(ctx, e.Actor, fieldDeletedUsers, e)
}

func (s *Store) AppendDeletedEvent(ctx context.Context, e models.DeletedEventEntry) error {
	return s.appendEntry(ctx, e.Actor, fieldDeletedEvents, e)
}

func (s *Store) AppendWarning(ctx context.Context, e models.WarningEntry) error {
	return s.appendEntry(ctx, e.Actor, fieldWarnings, e)
}

func (s *Store) AppendPassedReport(ctx context.Context, e models.PassedReportEntry) error {
	return s.appendEntry(ctx, e.Actor, fieldPassedReports, e)
}

func (s *Store) WarningsForUser(ctx context.Context, userID ID) ([]models.WarningEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"warnings.user_id": userID}}},
		{{Key: "$unwind", Value: "$warnings"}},
		{{Key: "$match", Value: bson.M{"warnings.user_id": userID}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$warnings"}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
	}
	cur, err := s.col(ColModerators).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cur.Close(ctx)

	out := make([]models.WarningEntry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) WarningCounts(ctx context.Context) (map[ID]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$warnings"}},
		{{Key: "$group", Value: bson.M{"_id": "$warnings.user_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.col(ColModerators).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		UserID ID  `bson:"_id"`
		Count  int `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[ID]int, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.Count
	}
	return out, nil
}
