package vkapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	authAppID   = "6287487"
	authBaseURL = "https://oauth.vk.com/authorize"
)

// TokenData is the credential blob persisted in the session directory.
type TokenData struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// AuthURL returns the implicit-flow OAuth URL the user opens in a
// browser. The redirect lands on blank.html with the token in the
// fragment.
func AuthURL() string {
	return fmt.Sprintf(
		"%s?client_id=%s&display=page&redirect_uri=https://oauth.vk.com/blank.html&scope=messages,friends,offline&response_type=token&v=%s",
		authBaseURL, authAppID, APIVersion)
}

// ParseRedirectURL extracts the token from a pasted OAuth redirect URL.
// Users paste these in several mangled forms (missing scheme, leading
// //), all of which are accepted.
func ParseRedirectURL(raw string) (*TokenData, error) {
	s := strings.TrimSpace(raw)
	_, fragment, ok := strings.Cut(s, "#")
	if !ok {
		return nil, fmt.Errorf("no fragment in redirect URL (expected #access_token=...)")
	}

	var td TokenData
	var expiresIn int64
	for _, pair := range strings.Split(fragment, "&") {
		key, value, _ := strings.Cut(pair, "=")
		switch key {
		case "access_token":
			td.AccessToken = value
		case "user_id":
			td.UserID, _ = strconv.ParseInt(value, 10, 64)
		case "expires_in":
			expiresIn, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	if td.AccessToken == "" {
		return nil, fmt.Errorf("no access_token in redirect URL")
	}
	if td.UserID == 0 {
		return nil, fmt.Errorf("no user_id in redirect URL")
	}
	if expiresIn > 0 {
		td.ExpiresAt = time.Now().Unix() + expiresIn
	}
	return &td, nil
}

// Expired reports whether the token has a known expiry in the past.
// Offline-scope tokens have no expiry and never report expired.
func (t *TokenData) Expired() bool {
	return t.ExpiresAt > 0 && time.Now().Unix() >= t.ExpiresAt
}

// LoadToken reads a persisted token. Returns nil without error if the
// file does not exist.
func LoadToken(path string) (*TokenData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var td TokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &td, nil
}

// SaveToken persists a token with owner-only permissions.
func SaveToken(path string, td *TokenData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// DeleteToken removes a persisted token. Missing files are not errors.
func DeleteToken(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
