// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment grants a user a set of beds for a bounded rotation period.
//
// Ward is stored as a name snapshot and Beds as user-facing bed labels, not
// storage IDs. This denormalization is deliberate: it keeps display cheap and
// matches how clients address beds, at the cost of rename/duplicate hazards.
// Readers resolve the references against the live department document and
// tolerate entries that no longer exist.
type Assignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user"`
	DepartmentID primitive.ObjectID `bson:"department_id" json:"department"`
	Ward         string             `bson:"ward" json:"ward"`
	Beds         []string           `bson:"beds" json:"beds"`

	DeptExpiry *time.Time `bson:"dept_expiry,omitempty" json:"deptExpiry,omitempty"`
	WardExpiry *time.Time `bson:"ward_expiry,omitempty" json:"wardExpiry,omitempty"`

	Note string `bson:"note" json:"note"`

	// CreatedBy may differ from UserID when an admin assigns on behalf of
	// someone else.
	CreatedBy primitive.ObjectID `bson:"created_by" json:"createdBy"`
	IsActive  bool               `bson:"is_active" json:"isActive"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// HasBed reports whether the assignment's bed list already contains the
// given label.
func (a *Assignment) HasBed(label string) bool {
	for _, b := range a.Beds {
		if b == label {
			return true
		}
	}
	return false
}

// DropBed removes the given label from the assignment's bed list and reports
// whether it was present.
func (a *Assignment) DropBed(label string) bool {
	for i, b := range a.Beds {
		if b == label {
			a.Beds = append(a.Beds[:i], a.Beds[i+1:]...)
			return true
		}
	}
	return false
}

// Expired reports whether either scope expiry has passed at the given time.
// Nil expiries never expire.
func (a *Assignment) Expired(now time.Time) bool {
	if a.DeptExpiry != nil && !a.DeptExpiry.After(now) {
		return true
	}
	if a.WardExpiry != nil && !a.WardExpiry.After(now) {
		return true
	}
	return false
}
