package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService.
//
// The service guards the single shared panel password. The credential
// comes from configuration either as plaintext (auth.password) or as
// an Argon2id hash (auth.password_hash); the hash takes precedence
// when both are set.
type AuthServiceImpl struct {
	password     string
	passwordHash string
	hashSvc      ports.HashService
	tokenSvc     ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(password, passwordHash string, hashSvc ports.HashService, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		password:     password,
		passwordHash: passwordHash,
		hashSvc:      hashSvc,
		tokenSvc:     tokenSvc,
	}
}

// Login validates the panel password and returns a freshly issued
// bearer token bound to the requester host.
func (s *AuthServiceImpl) Login(ctx context.Context, password, host string) (string, error) {
	ok, err := s.verify(password)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", apperror.ErrInvalidCredentials()
	}

	token, err := s.tokenSvc.Issue(host)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	return token, nil
}

func (s *AuthServiceImpl) verify(password string) (bool, error) {
	if s.passwordHash != "" {
		return s.hashSvc.Verify(password, s.passwordHash)
	}

	// With no credential configured every login is refused.
	if s.password == "" {
		return false, nil
	}

	want := sha256.Sum256([]byte(s.password))
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1, nil
}
