package tool

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
	googleauthx "github.com/chanakan-p/donna-agent/pkg/googleauth"
)

const maxGoogleResponseBytes = 4 << 20

// Credentials is the credential collaborator as seen by the Google tool
// clients: a bearer header on demand, plus a refresh when it has expired.
type Credentials interface {
	AuthHeader(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

// googleREST executes authenticated JSON calls against a Google API. A 401
// triggers one transparent token refresh and retry; credentials that cannot
// be obtained at all surface as an AuthFailure outcome.
type googleREST struct {
	creds      Credentials
	httpClient *http.Client
}

func (g *googleREST) doJSON(ctx context.Context, method, rawURL string, query url.Values, payload any, out any) error {
	refreshed := false
	for {
		status, body, err := g.once(ctx, method, rawURL, query, payload)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized && !refreshed {
			refreshed = true
			if err := g.creds.Refresh(ctx); err != nil {
				return fmt.Errorf("%w: %v", contractx.ErrAuthFailure, err)
			}
			continue
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return fmt.Errorf("%w: google api status=%d", contractx.ErrAuthFailure, status)
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return fmt.Errorf("google api status=%d body=%s", status, truncate(string(body), 512))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode google api response: %w", err)
		}
		return nil
	}
}

func (g *googleREST) once(ctx context.Context, method, rawURL string, query url.Values, payload any) (int, []byte, error) {
	header, err := g.creds.AuthHeader(ctx)
	if err != nil {
		if errors.Is(err, googleauthx.ErrNotConnected) {
			return 0, nil, fmt.Errorf("%w: %v", contractx.ErrAuthFailure, err)
		}
		return 0, nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := rawURL
	if len(query) > 0 {
		target = rawURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build google api request: %w", err)
	}
	req.Header.Set("Authorization", header)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("execute google api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGoogleResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read google api response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// decodeBase64URL decodes Gmail's base64url payloads, tolerating missing
// padding.
func decodeBase64URL(data string) ([]byte, error) {
	s := strings.TrimSpace(data)
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return base64.URLEncoding.DecodeString(s)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
