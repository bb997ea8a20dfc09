package assignmentstore

import (
	"context"
	"time"

	"github.com/wardsync/wardsync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assignments")}
}

// Create inserts a new assignment document. If ID is zero a new ObjectID is
// assigned; CreatedAt defaults to now (UTC) and IsActive to true.
func (s *Store) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.IsActive = true
	if a.Beds == nil {
		a.Beds = []string{}
	}

	_, err := s.c.InsertOne(ctx, a)
	return a, err
}

// GetByID returns a single assignment by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Assignment, error) {
	var a models.Assignment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// Update replaces an existing assignment identified by its _id.
func (s *Store) Update(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if a.ID.IsZero() {
		return a, mongo.ErrNilDocument
	}
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	return a, err
}

// Delete removes the assignment with the given _id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByUser returns every assignment belonging to the user, active or not.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByUser returns the user's active assignments, newest first.
func (s *Store) ListActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestByUser returns the user's most recently created assignment, or
// mongo.ErrNoDocuments if none exists.
func (s *Store) LatestByUser(ctx context.Context, userID primitive.ObjectID) (models.Assignment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var a models.Assignment
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&a)
	return a, err
}

// DeleteByUserExcept removes every assignment belonging to the user except
// the one with keepID. Used by the full-update path to collapse a user's
// history down to a single authoritative record. Returns the number deleted.
func (s *Store) DeleteByUserExcept(ctx context.Context, userID, keepID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"user_id": userID,
		"_id":     bson.M{"$ne": keepID},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListExpired returns all active assignments whose department- or ward-level
// expiry is at or before now. Assignments without expiry timestamps never
// match.
func (s *Store) ListExpired(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	filter := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"dept_expiry": bson.M{"$lte": now}},
			bson.M{"ward_expiry": bson.M{"$lte": now}},
		},
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate marks the assignment inactive. The document is kept for
// history; only bed-removal can delete an assignment.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": false}})
	return err
}
