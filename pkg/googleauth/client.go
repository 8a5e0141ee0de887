package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	maxTokenResponseBytes = 1 << 20
)

// Scopes requested during authorization.
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/calendar",
}

var ErrNotConnected = errors.New("google account is not connected")

type Config struct {
	ClientID     string        `envconfig:"CLIENT_ID" split_words:"true" required:"true"`
	ClientSecret string        `envconfig:"CLIENT_SECRET" split_words:"true" required:"true"`
	RedirectURL  string        `envconfig:"REDIRECT_URL" split_words:"true" default:"http://localhost:8080/auth/callback"`
	TokensFile   string        `envconfig:"TOKENS_FILE" split_words:"true" default:"storage/tokens.json"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Tokens is the persisted token set.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Client supplies a valid access credential on demand and refreshes an
// expired one. Tokens live in a JSON file so a restart keeps the connection.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	tokensFile   string
	authURL      string
	tokenURL     string
	httpClient   *http.Client

	mu     sync.Mutex
	tokens Tokens
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoints overrides the Google OAuth endpoints. Used by tests.
func WithEndpoints(authURL, tokenURL string) Option {
	return func(c *Client) {
		if strings.TrimSpace(authURL) != "" {
			c.authURL = authURL
		}
		if strings.TrimSpace(tokenURL) != "" {
			c.tokenURL = tokenURL
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("google client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("google client secret is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		redirectURL:  strings.TrimSpace(cfg.RedirectURL),
		tokensFile:   strings.TrimSpace(cfg.TokensFile),
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.tokens = c.loadTokens()
	return c, nil
}

// AuthCodeURL builds the consent-screen URL that starts the OAuth flow.
func (c *Client) AuthCodeURL() string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return c.authURL + "?" + q.Encode()
}

// Exchange trades an authorization code for tokens and persists them.
func (c *Client) Exchange(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return errors.New("authorization code is empty")
	}

	tokens, err := c.tokenRequest(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURL},
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
	return c.saveTokensLocked()
}

// Refresh exchanges the stored refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.tokens.RefreshToken
	c.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("%w: no refresh token", ErrNotConnected)
	}

	tokens, err := c.tokenRequest(ctx, url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.tokens.RefreshToken = tokens.RefreshToken
	}
	log.Debug().Msg("google access token refreshed")
	return c.saveTokensLocked()
}

// AuthHeader returns the bearer header for API calls, or ErrNotConnected.
func (c *Client) AuthHeader(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.tokens.AccessToken
	c.mu.Unlock()

	if token == "" {
		return "", ErrNotConnected
	}
	return "Bearer " + token, nil
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken != ""
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("execute token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return Tokens{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Tokens{}, fmt.Errorf("token endpoint status=%d body=%s", resp.StatusCode, string(raw))
	}

	var tokens Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return Tokens{}, errors.New("token response has no access_token")
	}
	return tokens, nil
}

func (c *Client) loadTokens() Tokens {
	if c.tokensFile == "" {
		return Tokens{}
	}
	raw, err := os.ReadFile(c.tokensFile)
	if err != nil {
		return Tokens{}
	}
	var tokens Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		log.Warn().Err(err).Str("file", c.tokensFile).Msg("tokens file is corrupt, ignoring")
		return Tokens{}
	}
	return tokens
}

func (c *Client) saveTokensLocked() error {
	if c.tokensFile == "" {
		return nil
	}
	if dir := filepath.Dir(c.tokensFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create tokens dir: %w", err)
		}
	}
	payload, err := json.Marshal(c.tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	if err := os.WriteFile(c.tokensFile, payload, 0o600); err != nil {
		return fmt.Errorf("write tokens file: %w", err)
	}
	return nil
}
