// Package auth loads the acting user's identity into the request context.
//
// Credential verification (login, OTP, password reset) belongs to the
// external auth service. That service issues signed tokens; this package
// only verifies them and trusts the embedded identity and role. Tokens are
// accepted from an Authorization bearer header, or from a securecookie-sealed
// cookie for browser clients that share the cookie key with the auth service.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// AuthUser is the identity injected into r.Context() for each verified
// request.
type AuthUser struct {
	ID   string
	Name string
	Role string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the acting user and a found flag.
func CurrentUser(r *http.Request) (*AuthUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*AuthUser)
	return u, ok
}

func withUser(r *http.Request, u *AuthUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// Claims is the token payload shared with the external auth service.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates tokens and exposes the auth middleware.
type Verifier struct {
	key        []byte
	cookieName string
	sc         *securecookie.SecureCookie
	log        *zap.Logger
}

// NewVerifier creates a Verifier. tokenKey signs both the JWTs and the
// cookie transport; cookieName is the cookie browser clients carry the
// claims in (blank disables the cookie path).
func NewVerifier(tokenKey, cookieName string, logger *zap.Logger) *Verifier {
	v := &Verifier{
		key:        []byte(tokenKey),
		cookieName: cookieName,
		log:        logger,
	}
	if cookieName != "" {
		v.sc = securecookie.New([]byte(tokenKey), nil)
		v.sc.SetSerializer(securecookie.JSONEncoder{})
	}
	return v
}

// LoadUser injects the acting user into context when the request carries a
// valid token. Requests without a token pass through anonymous; RequireSignedIn
// gates the routes that need identity.
func (v *Verifier) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := v.userFromBearer(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		if u, ok := v.userFromCookie(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a verified user.
func (v *Verifier) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects signed-in users whose role is not in the allowed set.
func (v *Verifier) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := set[strings.ToLower(u.Role)]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (v *Verifier) userFromBearer(r *http.Request) (*AuthUser, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return nil, false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	return v.parseToken(parts[1])
}

func (v *Verifier) userFromCookie(r *http.Request) (*AuthUser, bool) {
	if v.sc == nil {
		return nil, false
	}
	c, err := r.Cookie(v.cookieName)
	if err != nil {
		return nil, false
	}
	var token string
	if err := v.sc.Decode(v.cookieName, c.Value, &token); err != nil {
		return nil, false
	}
	return v.parseToken(token)
}

func (v *Verifier) parseToken(raw string) (*AuthUser, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.key, nil
	})
	if err != nil || !token.Valid {
		if err != nil && v.log != nil {
			v.log.Debug("token rejected", zap.Error(err))
		}
		return nil, false
	}
	if claims.Subject == "" {
		return nil, false
	}
	return &AuthUser{ID: claims.Subject, Name: claims.Name, Role: claims.Role}, true
}

// SignToken issues a token for the given identity. The external auth service
// owns token issuance in production; this helper exists for tests and local
// tooling that need a valid token against the shared key.
func SignToken(key []byte, userID, name, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
