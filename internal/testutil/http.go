package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/wardsync/wardsync/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenKey is the signing key handler tests share with their Verifier.
const TokenKey = "test-token-key-0123456789abcdef"

// Authorize attaches a bearer token for the given identity to the request.
func Authorize(t *testing.T, r *http.Request, userID primitive.ObjectID, name, role string) {
	t.Helper()
	token, err := auth.SignToken([]byte(TokenKey), userID.Hex(), name, role, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	r.Header.Set("Authorization", "Bearer "+token)
}
