package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		TokensFile:   filepath.Join(t.TempDir(), "tokens.json"),
		Timeout:      time.Second,
	}
}

func tokenServer(t *testing.T, handler func(form url.Values) (int, any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		status, body := handler(r.PostForm)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{ClientSecret: "x"}); err == nil {
		t.Fatal("expected error without client id")
	}
	if _, err := NewClient(Config{ClientID: "x"}); err == nil {
		t.Fatal("expected error without client secret")
	}
}

func TestAuthCodeURL(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	raw := c.AuthCodeURL()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Fatalf("offline consent parameters missing: %v", q)
	}
	if !strings.Contains(q.Get("scope"), "gmail.send") {
		t.Fatalf("scope missing gmail.send: %q", q.Get("scope"))
	}
}

func TestExchangePersistsTokens(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, func(form url.Values) (int, any) {
		if form.Get("grant_type") != "authorization_code" || form.Get("code") != "abc" {
			t.Errorf("unexpected form: %v", form)
		}
		return http.StatusOK, map[string]string{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
		}
	})
	defer srv.Close()

	cfg := testConfig(t)
	c, err := NewClient(cfg, WithEndpoints("", srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if c.Connected() {
		t.Fatal("should start disconnected")
	}
	if err := c.Exchange(context.Background(), "abc"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !c.Connected() {
		t.Fatal("should be connected after exchange")
	}

	header, err := c.AuthHeader(context.Background())
	if err != nil {
		t.Fatalf("AuthHeader() error = %v", err)
	}
	if header != "Bearer at-1" {
		t.Fatalf("header = %q", header)
	}

	// A fresh client picks the persisted tokens up from disk.
	reloaded, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if !reloaded.Connected() {
		t.Fatal("tokens not persisted across restart")
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, func(form url.Values) (int, any) {
		switch form.Get("grant_type") {
		case "authorization_code":
			return http.StatusOK, map[string]string{"access_token": "at-1", "refresh_token": "rt-1"}
		case "refresh_token":
			if form.Get("refresh_token") != "rt-1" {
				t.Errorf("unexpected refresh token: %q", form.Get("refresh_token"))
			}
			return http.StatusOK, map[string]string{"access_token": "at-2"}
		default:
			t.Errorf("unexpected grant type: %q", form.Get("grant_type"))
			return http.StatusBadRequest, map[string]string{}
		}
	})
	defer srv.Close()

	c, err := NewClient(testConfig(t), WithEndpoints("", srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := c.Exchange(context.Background(), "abc"); err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	header, _ := c.AuthHeader(context.Background())
	if header != "Bearer at-2" {
		t.Fatalf("header = %q", header)
	}

	// A second refresh must still hold the original refresh token.
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
}

func TestRefreshWithoutTokens(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := c.Refresh(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestAuthHeaderDisconnected(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.AuthHeader(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestExchangeRejectsEmptyAccessToken(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, func(form url.Values) (int, any) {
		return http.StatusOK, map[string]string{"refresh_token": "rt-only"}
	})
	defer srv.Close()

	c, err := NewClient(testConfig(t), WithEndpoints("", srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := c.Exchange(context.Background(), "abc"); err == nil {
		t.Fatal("expected error for missing access_token")
	}
}
