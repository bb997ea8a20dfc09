// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clinical staff roles. Admins manage the catalog and may act on anyone's
// assignment; supervisors manage the catalog; c1/c2/intern hold rotations.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleC1         = "c1"
	RoleC2         = "c2"
	RoleIntern     = "intern"
)

// User represents clinical staff. Credential data lives with the external
// auth service; this service only reads identity/role and flips
// FirstLoginDone on a user's first successful assignment.
type User struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	FullName       string             `bson:"full_name" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	Role           string             `bson:"role" json:"role"`
	FirstLoginDone bool               `bson:"first_login_done" json:"firstLoginDone"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the caller-visible projection of a User, returned from
// assignment creation so clients can refresh cached first-login state.
type PublicUser struct {
	ID             primitive.ObjectID `json:"id"`
	FullName       string             `json:"fullName"`
	Email          string             `json:"email"`
	Role           string             `json:"role"`
	FirstLoginDone bool               `json:"firstLoginDone"`
}

// Public returns the caller-visible projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		Role:           u.Role,
		FirstLoginDone: u.FirstLoginDone,
	}
}
