package service

import (
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerTokenService implements ports.TokenService.
//
// Issued tokens are HS256 JWTs carrying the requester host and issue
// time, and are stored with their "Bearer " prefix so validation can
// compare the raw Authorization header in one pass. Tokens live for
// the process lifetime; restarting the server revokes all of them.
type BearerTokenService struct {
	secret []byte

	mu     sync.RWMutex
	tokens []string
}

// NewBearerTokenService creates a new BearerTokenService.
func NewBearerTokenService(secret string) *BearerTokenService {
	return &BearerTokenService{secret: []byte(secret)}
}

// Issue signs a new token for the given host, registers it, and
// returns the full "Bearer <jwt>" string.
func (s *BearerTokenService) Issue(host string) (string, error) {
	claims := jwt.MapClaims{
		"host": host,
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	bearer := "Bearer " + signed

	s.mu.Lock()
	s.tokens = append(s.tokens, bearer)
	s.mu.Unlock()

	return bearer, nil
}

// Validate reports whether header matches a registered token. Every
// registered token is compared in constant time and the scan never
// exits early.
func (s *BearerTokenService) Validate(header string) bool {
	h := []byte(header)

	s.mu.RLock()
	defer s.mu.RUnlock()

	match := 0
	for _, t := range s.tokens {
		match |= subtle.ConstantTimeCompare(h, []byte(t))
	}
	return match == 1
}
