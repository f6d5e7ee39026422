// Package auth stores the teacher session token issued by the ClassPulse API.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrTokenNotFound = errors.New("token not found")

// Token is the bearer token returned by a teacher login.
type Token struct {
	Token string `json:"token"` // #nosec G117 - JSON field for the API session token, not an exposed secret
	Email string `json:"email,omitempty"`
}

// Valid reports whether the token carries a value.
func (t *Token) Valid() bool {
	return t != nil && t.Token != ""
}

// TokenStorage keeps tokens as files under a directory, one per API host profile.
type TokenStorage struct {
	dir string
}

func NewTokenStorage(dir string) *TokenStorage {
	return &TokenStorage{dir: dir}
}

func (s *TokenStorage) path(profile string) string {
	return filepath.Join(s.dir, filepath.Base(profile)+"_token.json")
}

func (s *TokenStorage) Save(profile string, token *Token) error {
	if !token.Valid() {
		return fmt.Errorf("refusing to save empty token")
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	return os.WriteFile(s.path(profile), data, 0600)
}

func (s *TokenStorage) Load(profile string) (*Token, error) {
	data, err := os.ReadFile(s.path(profile)) // #nosec G304 -- profile is sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	if !token.Valid() {
		return nil, ErrTokenNotFound
	}

	return &token, nil
}

// Delete removes a stored token. Deleting a missing token is not an error.
func (s *TokenStorage) Delete(profile string) error {
	if err := os.Remove(s.path(profile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
