package vkapi

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseRedirectURL(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"full url", "https://oauth.vk.com/blank.html#access_token=abc123&expires_in=86400&user_id=42"},
		{"no scheme", "oauth.vk.com/blank.html#access_token=abc123&expires_in=86400&user_id=42"},
		{"with whitespace", "  https://oauth.vk.com/blank.html#access_token=abc123&expires_in=0&user_id=42\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			td, err := ParseRedirectURL(tc.input)
			if err != nil {
				t.Fatal(err)
			}
			if td.AccessToken != "abc123" || td.UserID != 42 {
				t.Errorf("token = %+v", td)
			}
		})
	}
}

func TestParseRedirectURLErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"no fragment", "https://oauth.vk.com/blank.html"},
		{"no token", "https://oauth.vk.com/blank.html#user_id=42"},
		{"no user id", "https://oauth.vk.com/blank.html#access_token=abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRedirectURL(tc.input); err == nil {
				t.Error("want error")
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	offline := &TokenData{AccessToken: "a"}
	if offline.Expired() {
		t.Error("token without expiry must never expire")
	}

	stale := &TokenData{AccessToken: "a", ExpiresAt: time.Now().Unix() - 10}
	if !stale.Expired() {
		t.Error("past expiry must report expired")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	missing, err := LoadToken(path)
	if err != nil || missing != nil {
		t.Fatalf("LoadToken(missing) = %+v, %v", missing, err)
	}

	td := &TokenData{AccessToken: "secret", UserID: 42}
	if err := SaveToken(path, td); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadToken(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AccessToken != "secret" || loaded.UserID != 42 {
		t.Errorf("loaded = %+v", loaded)
	}

	if err := DeleteToken(path); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(path); err != nil {
		t.Error("double delete must not fail")
	}
}

func TestAuthURLShape(t *testing.T) {
	u := AuthURL()
	for _, part := range []string{"response_type=token", "scope=messages", "client_id="} {
		if !strings.Contains(u, part) {
			t.Errorf("AuthURL missing %q: %s", part, u)
		}
	}
}
