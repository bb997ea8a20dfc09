package departmentstore

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
	return &Store{c: db.Collection("departments")}
}

// Create inserts a new department document. If ID is zero a new ObjectID is
// assigned; CreatedAt/UpdatedAt are set to now (UTC) when zero.
func (s *Store) Create(ctx context.Context, d models.Department) (models.Department, error) {
	now := time.Now().UTC()

	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	if d.Wards == nil {
		d.Wards = []models.Ward{}
	}

	_, err := s.c.InsertOne(ctx, d)
	return d, err
}

// GetByID returns a single department by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Department, error) {
	var d models.Department
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	return d, err
}

// Update replaces an existing department identified by its _id.
//
// The department document is the unit of shared mutable state: callers read
// it, mutate the embedded ward/bed structure in memory, and write the whole
// document back here. Last write wins; there is no concurrency token.
func (s *Store) Update(ctx context.Context, d models.Department) (models.Department, error) {
	if d.ID.IsZero() {
		return d, mongo.ErrNilDocument
	}

	d.UpdatedAt = time.Now().UTC()
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	return d, err
}

// Delete removes the department with the given _id. Assignments referencing
// it are left in place; readers and the expiry sweep tolerate the dangling
// reference.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// List returns all departments sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Department, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Department
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
