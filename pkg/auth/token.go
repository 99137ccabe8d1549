package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrInvalidRole   = errors.New("invalid role")
	ErrEmptyEmail    = errors.New("email cannot be empty")
	ErrShortSecret   = errors.New("secret must be at least 32 characters")
)

// Valid roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

var validRoles = map[string]bool{
	RoleAdmin:    true,
	RoleCustomer: true,
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return validRoles[role]
}

// DefaultTokenTTL matches the session cookie lifetime.
const DefaultTokenTTL = 2 * time.Hour

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Identity is the verified caller carried by a session token.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenManager creates a token manager.
// Returns an error if the secret is shorter than 32 characters.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secretKey: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Sign issues a token for id.
func (m *TokenManager) Sign(id Identity) (string, error) {
	if id.Email == "" {
		return "", ErrEmptyEmail
	}
	if !ValidRole(id.Role) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, id.Role)
	}

	now := m.now()
	c := claims{
		ID:    id.ID,
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse verifies signature, algorithm, expiry and role of a token.
func (m *TokenManager) Parse(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if c.Email == "" || !ValidRole(c.Role) {
		return nil, ErrInvalidClaims
	}
	return &Identity{ID: c.ID, Email: c.Email, Role: c.Role}, nil
}

// Verify returns the identity of a valid token, or nil for any failure.
func (m *TokenManager) Verify(tokenString string) *Identity {
	id, err := m.Parse(tokenString)
	if err != nil {
		return nil
	}
	return id
}
