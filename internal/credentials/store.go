// Package credentials keeps per-project access tokens in the OS keychain.
package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keychain service name tokens are filed under.
const DefaultService = "gitlink"

// ErrNotFound is returned when no token is stored for a project.
var ErrNotFound = errors.New("token not found")

// Store saves tokens under one keychain service, keyed by project id.
type Store struct {
	service string
}

// NewStore creates a store for service (DefaultService when empty).
func NewStore(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Save stores token for projectID, replacing any previous one.
func (s *Store) Save(projectID, token string) error {
	if projectID == "" || token == "" {
		return errors.New("project id and token are required")
	}
	if err := keyring.Set(s.service, projectID, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Load returns the token stored for projectID.
func (s *Store) Load(projectID string) (string, error) {
	token, err := keyring.Get(s.service, projectID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Delete removes the token for projectID. Deleting a missing token is not an error.
func (s *Store) Delete(projectID string) error {
	err := keyring.Delete(s.service, projectID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
