package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ibrahim-qi/sesh-app/internal/config"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

const issuer = "sesh"

type Claims struct {
	MemberID string `json:"mid"`
	GroupID  string `json:"gid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{secret: []byte(cfg.TokenSecret), ttl: cfg.TokenTTL, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) Issue(m *domain.Member) (string, error) {
	now := i.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		MemberID: m.ID,
		GroupID:  m.GroupID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   m.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	s, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// Parse verifies a token and returns the principal it names. Every failure
// is reported as domain.ErrUnauthorized.
func (i *TokenIssuer) Parse(tokenStr string) (Principal, error) {
	if tokenStr == "" {
		return Principal{}, domain.ErrUnauthorized
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	cl, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || cl.MemberID == "" || cl.GroupID == "" {
		return Principal{}, fmt.Errorf("%w: bad claims", domain.ErrUnauthorized)
	}
	return Principal{MemberID: cl.MemberID, GroupID: cl.GroupID}, nil
}
