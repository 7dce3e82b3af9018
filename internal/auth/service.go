package auth

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service ties the credential hasher, the user store and the token issuer
// together for registration and login.
type Service struct {
	store  UserStore
	issuer *TokenIssuer
}

func NewService(store UserStore, issuer *TokenIssuer) *Service {
	return &Service{store: store, issuer: issuer}
}

// Register creates a regular user account with a freshly salted credential.
func (s *Service) Register(ctx context.Context, username, fullName, email, password string) (*User, error) {
	hash, salt, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		Role:         RoleUser,
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and mints a session token. Unknown
// usernames and wrong passwords both come back as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !VerifyPassword(password, user.PasswordHash, user.PasswordSalt) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
