package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and verifies the bearer tokens handed to clients
// after login. Tokens are HS256 JWTs carrying the user id and an expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issue signs a token for userID.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning the user id it was
// issued for. Every failure mode collapses into ErrInvalidToken; callers
// respond 401 without detail.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || parsed.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return parsed.UserID, nil
}
