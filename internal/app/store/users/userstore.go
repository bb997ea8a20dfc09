package userstore

import (
	"context"
	"time"

	"github.com/wardsync/wardsync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store reads clinical staff records and writes the single field this
// service owns (first_login_done). Everything else on the user document
// belongs to the external auth service.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a user document. Used by fixtures and by the auth service's
// provisioning tooling; request handlers here never create users.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := s.c.InsertOne(ctx, u)
	return u, err
}

// FindByID returns a single user by its _id.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

// MarkFirstLoginDone flips the user's first_login_done flag. Called once,
// on the user's first successful assignment creation.
func (s *Store) MarkFirstLoginDone(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"first_login_done": true,
		"updated_at":       time.Now().UTC(),
	}})
	return err
}
