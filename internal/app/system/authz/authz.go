// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/wardsync/wardsync/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the acting user's role (lowercased), name, Mongo ObjectID,
// and a found flag. If no user is present or the ID is malformed it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid
// authenticated user with a usable ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed subject in a verified token - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsSupervisor reports whether the current request's user is a supervisor.
func IsSupervisor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "supervisor"
}

// CanManageCatalog reports whether the user may mutate the facility catalog
// (departments, wards, beds).
func CanManageCatalog(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "admin" || role == "supervisor")
}

// CanActOn reports whether the acting user may operate on an assignment
// owned by ownerID: admins may act on anyone's, everyone else only on their
// own.
func CanActOn(r *http.Request, ownerID primitive.ObjectID) bool {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return false
	}
	return role == "admin" || userID == ownerID
}
