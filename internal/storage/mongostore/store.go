// Package mongostore implements storage.Store on MongoDB. Models are stored
// through their bson tags; collection names and indexes are declared here.
package mongostore

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/storage"
)

type ID = storage.ID

const (
	ColUsers      = "users"
	ColCooks      = "cooks"
	ColGuests     = "guests"
	ColOrganizers = "event_organizers"
	ColModerators = "moderators"
	ColRecipes    = "recipes"
	ColEvents     = "events"
	ColReports    = "reports"
)

type Options struct {
	URI      string
	Database string
	// Transactions enables multi-document transactions (replica set or
	// sharded cluster required). When off, RunInTransaction runs fn directly.
	Transactions bool
	ForceTLS12   bool
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	txn    bool

	cooks      *profiles[models.CookProfile]
	guests     *profiles[models.GuestProfile]
	organizers *profiles[models.OrganizerProfile]
}

var _ storage.Store = (*Store)(nil)

// New connects, pings and creates indexes (best effort).
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" || opts.Database == "" {
		return nil, fmt.Errorf("mongostore: uri and database are required")
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ForceTLS12 {
		clientOpts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS12,
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client: client,
		db:     db,
		txn:    opts.Transactions,
		cooks: &profiles[models.CookProfile]{
			col: db.Collection(ColCooks), key: func(p *models.CookProfile) ID { return p.UserID },
		},
		guests: &profiles[models.GuestProfile]{
			col: db.Collection(ColGuests), key: func(p *models.GuestProfile) ID { return p.UserID },
		},
		organizers: &profiles[models.OrganizerProfile]{
			col: db.Collection(ColOrganizers), key: func(p *models.OrganizerProfile) ID { return p.UserID },
		},
	}

	if err := s.ensureIndexes(ctx); err != nil {
		logging.Warn().Err(err).Str("component", "store").Msg("mongostore: ensure indexes failed")
	}

	logging.Info().Str("component", "store").Str("db", opts.Database).
		Bool("transactions", opts.Transactions).Msg("MongoDB connected")
	return s, nil
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Database exposes the underlying database (tests drop it on cleanup).
func (s *Store) Database() *mongo.Database { return s.db }

func (s *Store) Cooks() storage.CookStore           { return s.cooks }
func (s *Store) Guests() storage.GuestStore         { return s.guests }
func (s *Store) Organizers() storage.OrganizerStore { return s.organizers }

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col  string
		keys bson.D
		opts *options.IndexOptions
	}

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, options.Index().SetUnique(true)},
		{ColUsers, bson.D{{Key: "verification_token", Value: 1}}, options.Index().SetSparse(true)},
		{ColUsers, bson.D{{Key: "reset_password_token", Value: 1}}, options.Index().SetSparse(true)},
		{ColUsers, bson.D{{Key: "is_verified", Value: 1}, {Key: "created_at", Value: 1}}, nil},

		{ColRecipes, bson.D{{Key: "user_id", Value: 1}}, nil},
		{ColRecipes, bson.D{{Key: "category", Value: 1}}, nil},
		{ColRecipes, bson.D{{Key: "title", Value: "text"}}, nil},
		{ColRecipes, bson.D{{Key: "created_at", Value: -1}}, nil},

		{ColEvents, bson.D{{Key: "organizer_id", Value: 1}}, nil},
		{ColEvents, bson.D{{Key: "join_token", Value: 1}}, options.Index().SetUnique(true)},
		{ColEvents, bson.D{{Key: "end_time", Value: 1}}, nil},

		{ColReports, bson.D{{Key: "created_at", Value: -1}}, nil},
		{ColReports, bson.D{{Key: "reported_user_id", Value: 1}}, nil},

		{ColModerators, bson.D{{Key: "warnings.user_id", Value: 1}}, nil},
	}

	var firstErr error
	for _, ix := range indexes {
		model := mongo.IndexModel{Keys: ix.keys, Options: ix.opts}
		if _, err := s.col(ix.col).Indexes().CreateOne(ctx, model); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s %v: %w", ix.col, ix.keys, err)
		}
	}

	// Collections must exist before they can be written inside a transaction
	// on servers older than 4.4.
	for _, name := range []string{ColCooks, ColGuests, ColOrganizers} {
		_ = s.db.CreateCollection(ctx, name)
	}
	return firstErr
}

// RunInTransaction runs fn inside a multi-document transaction when enabled.
// Calls made while a session is already active on ctx join it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.txn || mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func now() time.Time { return time.Now().UTC() }
