// Package identity resolves the authenticated principal at the transport
// boundary. Credential issuance and verification belong to the external
// identity provider; this package only validates the bearer token it
// minted and turns its claims into a read-only principal.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shiftdesk/shiftdesk/internal/authz"
)

// Claims is the token payload agreed with the identity provider.
type Claims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Resolver validates bearer tokens against the shared HMAC secret.
type Resolver struct {
	secret []byte
}

// NewResolver creates a resolver for the given shared secret.
func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

// Resolve parses and validates a bearer token, returning the principal it
// describes. The role claim is normalized through the role catalog, so an
// unknown role yields a principal below guest rank rather than an error.
func (r *Resolver) Resolve(token string) (authz.Principal, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return r.secret, nil
	})
	if err != nil || !parsed.Valid {
		return authz.Principal{}, authz.ErrUnauthenticated
	}

	if claims.Subject == "" {
		return authz.Principal{}, authz.ErrUnauthenticated
	}

	p := authz.Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  authz.ParseRole(claims.Role),
	}

	if claims.DepartmentID != "" {
		dept := claims.DepartmentID
		p.DepartmentID = &dept
	}

	return p, nil
}

// Sign mints a token for the given principal. Exists for dev mode and
// tests; production tokens come from the identity provider.
func (r *Resolver) Sign(p authz.Principal, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	if p.DepartmentID != nil {
		claims.DepartmentID = *p.DepartmentID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
