package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wardsync/wardsync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDepartment creates a department with one ward containing the given
// bed labels. Returns the created department with its generated IDs.
func (f *Fixtures) CreateDepartment(ctx context.Context, name, wardName string, bedLabels ...string) models.Department {
	f.t.Helper()

	beds := make([]models.Bed, 0, len(bedLabels))
	for _, label := range bedLabels {
		beds = append(beds, models.Bed{
			ID:     primitive.NewObjectID(),
			Label:  label,
			Status: "available",
		})
	}

	now := time.Now().UTC()
	dept := models.Department{
		ID:   primitive.NewObjectID(),
		Name: name,
		Wards: []models.Ward{
			{ID: primitive.NewObjectID(), Name: wardName, Beds: beds},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("departments").InsertOne(ctx, dept); err != nil {
		f.t.Fatalf("failed to create test department: %v", err)
	}
	return dept
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateIntern creates a test intern user.
func (f *Fixtures) CreateIntern(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleIntern)
}

// CreateAssignment inserts an assignment document directly. Most engine
// tests create assignments through the engine instead; this exists for
// sweep and store tests that need precise control over fields.
func (f *Fixtures) CreateAssignment(ctx context.Context, a models.Assignment) models.Assignment {
	f.t.Helper()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Beds == nil {
		a.Beds = []string{}
	}

	if _, err := f.db.Collection("assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}

// FutureTime returns a UTC timestamp the given number of hours from now.
func FutureTime(hours int) *time.Time {
	ts := time.Now().UTC().Add(time.Duration(hours) * time.Hour)
	return &ts
}

// PastTime returns a UTC timestamp the given number of hours before now.
func PastTime(hours int) *time.Time {
	ts := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return &ts
}
