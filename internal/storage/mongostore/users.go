package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.Inbox == nil {
		u.Inbox = []models.InboxMessage{}
	}
	return insertOne(ctx, s.col(ColUsers), u)
}

func (s *Store) GetUser(ctx context.Context, id ID) (*models.User, error) {
	return findOne[models.User](ctx, s.col(ColUsers), bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.col(ColUsers), bson.M{"email": strings.ToLower(email)})
}

func (s *Store) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return findOne[models.User](ctx, s.col(ColUsers), bson.M{"verification_token": token})
}

func (s *Store) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, storage.ErrNotFound
	}
	return findOne[models.User](ctx, s.col(ColUsers), bson.M{"reset_password_token": token})
}

// optionalUserFields are omitted from the encoded user when empty and must be
// unset explicitly on update.
var optionalUserFields = []string{
	"verification_token",
	"verification_token_expires_at",
	"reset_password_token",
	"reset_password_expires_at",
	"last_login",
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	raw, err := bson.Marshal(u)
	if err != nil {
		return fmt.Errorf("mongostore: encode user: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return fmt.Errorf("mongostore: encode user: %w", err)
	}
	delete(set, "_id")
	delete(set, "inbox")

	update := bson.M{"$set": set}
	unset := bson.M{}
	for _, f := range optionalUserFields {
		if _, ok := set[f]; !ok {
			unset[f] = ""
		}
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return updateOne(ctx, s.col(ColUsers), bson.M{"_id": u.ID}, update)
}

func (s *Store) DeleteUser(ctx context.Context, id ID) error {
	return deleteOne(ctx, s.col(ColUsers), bson.M{"_id": id})
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[models.User](ctx, s.col(ColUsers), bson.M{}, opts)
}

func (s *Store) ListUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]*models.User, error) {
	return findMany[models.User](ctx, s.col(ColUsers), bson.M{
		"is_verified": false,
		"created_at":  bson.M{"$lt": cutoff},
	})
}

func (s *Store) PushInboxMessage(ctx context.Context, userID ID, msg models.InboxMessage) error {
	return updateOne(ctx, s.col(ColUsers), bson.M{"_id": userID}, bson.M{
		"$push": bson.M{"inbox": msg},
	})
}

func (s *Store) MarkInboxMessageRead(ctx context.Context, userID, msgID ID) error {
	return updateOne(ctx, s.col(ColUsers),
		bson.M{"_id": userID, "inbox._id": msgID},
		bson.M{"$set": bson.M{"inbox.$.read": true}},
	)
}

func (s *Store) DeleteInboxMessage(ctx context.Context, userID, msgID ID) error {
	return updateOne(ctx, s.col(ColUsers),
		bson.M{"_id": userID, "inbox._id": msgID},
		bson.M{"$pull": bson.M{"inbox": bson.M{"_id": msgID}}},
	)
}
