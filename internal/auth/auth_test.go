package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(secret string, ttl time.Duration, now time.Time) *TokenIssuer {
	i := NewTokenIssuer(&config.Config{TokenSecret: secret, TokenTTL: ttl})
	i.now = func() time.Time { return now }
	return i
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	i := testIssuer("s3cret", time.Hour, now)

	tok, err := i.Issue(&domain.Member{ID: "m1", GroupID: "g1"})
	require.NoError(t, err)

	p, err := i.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, Principal{MemberID: "m1", GroupID: "g1"}, p)
}

func TestParseRejects(t *testing.T) {
	now := time.Now()
	good := testIssuer("s3cret", time.Hour, now)
	valid, err := good.Issue(&domain.Member{ID: "m1", GroupID: "g1"})
	require.NoError(t, err)

	expired, err := testIssuer("s3cret", time.Minute, now.Add(-time.Hour)).Issue(&domain.Member{ID: "m1", GroupID: "g1"})
	require.NoError(t, err)

	otherKey, err := testIssuer("other", time.Hour, now).Issue(&domain.Member{ID: "m1", GroupID: "g1"})
	require.NoError(t, err)

	noGroup, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		MemberID: "m1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"missing group", noGroup},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := good.Parse(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestSetupGate(t *testing.T) {
	disabled, err := NewSetupGate(&config.Config{})
	require.NoError(t, err)
	assert.False(t, disabled.Enabled())
	assert.ErrorIs(t, disabled.Check("anything"), domain.ErrSetupDisabled)

	gate, err := NewSetupGate(&config.Config{SetupCode: "Hoops2025"})
	require.NoError(t, err)
	assert.True(t, gate.Enabled())
	assert.NoError(t, gate.Check("  hoops2025 "))
	assert.ErrorIs(t, gate.Check("hoops"), domain.ErrForbidden)
	assert.ErrorIs(t, gate.Check(""), domain.ErrForbidden)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{MemberID: "m1", GroupID: "g1"})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "m1", p.MemberID)
}
