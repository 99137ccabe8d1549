package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-must-be-at-least-32-characters-long"

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewTokenManager_ShortSecret(t *testing.T) {
	_, err := NewTokenManager("too-short", time.Hour)
	assert.ErrorIs(t, err, ErrShortSecret)
}

func TestTokenManager_SignVerifyRoundTrip(t *testing.T) {
	m := newManager(t)

	tests := []struct {
		name string
		id   Identity
	}{
		{"admin", Identity{ID: 1, Email: "admin@example.com", Role: RoleAdmin}},
		{"customer", Identity{ID: 42, Email: "ana@example.com", Role: RoleCustomer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.Sign(tt.id)
			require.NoError(t, err)

			got := m.Verify(token)
			require.NotNil(t, got)
			assert.Equal(t, tt.id, *got)
		})
	}
}

func TestTokenManager_SignRejectsBadInput(t *testing.T) {
	m := newManager(t)

	_, err := m.Sign(Identity{ID: 1, Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = m.Sign(Identity{ID: 1, Email: "x@example.com", Role: "cliente"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestTokenManager_VerifyFailuresReturnNil(t *testing.T) {
	m := newManager(t)
	valid, err := m.Sign(Identity{ID: 5, Email: "a@example.com", Role: RoleCustomer})
	require.NoError(t, err)

	other, err := NewTokenManager(strings.Repeat("z", 40), time.Hour)
	require.NoError(t, err)
	foreign, err := other.Sign(Identity{ID: 5, Email: "a@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": 5, "email": "a@example.com", "role": RoleAdmin,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": foreign,
		"tampered":     tampered,
		"alg none":     noneToken,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, m.Verify(tok))
		})
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m := newManager(t)
	issued := time.Now().Add(-3 * time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Sign(Identity{ID: 1, Email: "a@example.com", Role: RoleCustomer})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, m.Verify(token))
}

func TestTokenManager_UnknownRoleRejected(t *testing.T) {
	m := newManager(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": 9, "email": "a@example.com", "role": "superuser",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
