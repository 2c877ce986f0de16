// Package credentials keeps the AnswerRocket API token in the OS credential
// store (macOS Keychain, Windows Credential Manager, Secret Service on Linux).
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for OS credential store
	credentialService = "arcopilot"
	// Key for the AnswerRocket API token
	tokenKey = "ar_token"
)

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no AnswerRocket token stored")

// Manager stores and retrieves the token.
type Manager struct {
	service string
}

// NewManager returns a Manager bound to the arcopilot service.
func NewManager() *Manager {
	return &Manager{service: credentialService}
}

// Store saves token, replacing any previous value.
func (m *Manager) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("token cannot contain whitespace")
	}
	if err := keyring.Set(m.service, tokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// Get returns the stored token, or ErrNoToken.
func (m *Manager) Get() (string, error) {
	token, err := keyring.Get(m.service, tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the stored token. A missing token is not an error.
func (m *Manager) Delete() error {
	err := keyring.Delete(m.service, tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// Has reports whether a token is stored without returning it.
func (m *Manager) Has() bool {
	_, err := m.Get()
	return err == nil
}
