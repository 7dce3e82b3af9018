package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type adminSeed struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
}

// EnsureAdmin creates the bootstrap admin account described by the seed
// file when no admin exists yet. It is idempotent; a concurrent starter
// losing the insert race at the store's unique index counts as success.
func EnsureAdmin(ctx context.Context, store UserStore, seedPath string) error {
	n, err := store.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read admin seed: %w", err)
	}
	var seed adminSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse admin seed: %w", err)
	}
	if seed.Username == "" || seed.Password == "" {
		return errors.New("admin seed must set username and password")
	}

	hash, salt, err := HashPassword(seed.Password)
	if err != nil {
		return err
	}
	u := &User{
		Username:     seed.Username,
		FullName:     seed.FullName,
		Email:        seed.Email,
		Role:         RoleAdmin,
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	if err := store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
