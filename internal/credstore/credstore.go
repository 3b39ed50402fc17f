package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "stoker"
	account = "refresh-token"
)

// Indirection over the keyring package so tests can run without an OS keychain.
var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// ErrNotFound is returned when no refresh token is stored anywhere.
var ErrNotFound = errors.New("refresh token not found")

// Store reads and writes the refresh credential in the OS keyring.
type Store struct{}

// NewStore returns a keyring-backed credential store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the stored refresh token.
func (s *Store) Get() (string, error) {
	token, err := keyringGet(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return token, nil
}

// Set stores the refresh token.
func (s *Store) Set(token string) error {
	if token == "" {
		return errors.New("refusing to store empty refresh token")
	}
	if err := keyringSet(service, account, token); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Delete removes the stored refresh token.
func (s *Store) Delete() error {
	if err := keyringDelete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

// Resolve returns the refresh token from configuration when set, falling back
// to the OS keyring. The credential is treated as an opaque string.
func (s *Store) Resolve(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return s.Get()
}
