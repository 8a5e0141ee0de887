package tool

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/chanakan-p/donna-agent/agent/contract"
)

const (
	ToolSearchEmails = "search_emails"
	ToolSendEmail    = "send_email"

	defaultGmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"
	maxEmailBodyChars   = 4000
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// EmailSummary is the search_emails payload, one entry per matched message.
type EmailSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}

// SendEmailOutput is the send_email payload.
type SendEmailOutput struct {
	ID string `json:"id"`
	To string `json:"to"`
}

// GmailClient exposes the Gmail REST API as registry tools.
type GmailClient struct {
	rest    *googleREST
	baseURL string
}

type GmailOption func(*GmailClient)

func WithGmailBaseURL(baseURL string) GmailOption {
	return func(c *GmailClient) {
		if v := strings.TrimRight(strings.TrimSpace(baseURL), "/"); v != "" {
			c.baseURL = v
		}
	}
}

func WithGmailHTTPClient(hc *http.Client) GmailOption {
	return func(c *GmailClient) {
		if hc != nil {
			c.rest.httpClient = hc
		}
	}
}

func NewGmailClient(creds Credentials, opts ...GmailOption) *GmailClient {
	c := &GmailClient{
		rest: &googleREST{
			creds:      creds,
			httpClient: &http.Client{Timeout: 30 * time.Second},
		},
		baseURL: defaultGmailBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RegisterTools adds search_emails and send_email to the registry.
func (c *GmailClient) RegisterTools(r *Registry) error {
	if err := r.Register(contractx.ToolSpec{
		Name:        ToolSearchEmails,
		Description: "Search the user's Gmail inbox for emails matching a query.",
		Params: map[string]contractx.ParamSpec{
			"query": {
				Type:        "string",
				Description: "Gmail search query (e.g. 'from:recruiter', 'subject:meeting', 'newer_than:7d')",
				Required:    true,
			},
			"max_results": {
				Type:        "integer",
				Description: "Maximum emails to return",
				Default:     5,
			},
		},
	}, c.handleSearch); err != nil {
		return err
	}

	return r.Register(contractx.ToolSpec{
		Name:        ToolSendEmail,
		Description: "Send an email from the user's Gmail account.",
		Params: map[string]contractx.ParamSpec{
			"to":      {Type: "string", Description: "Recipient email address", Required: true},
			"subject": {Type: "string", Description: "Email subject line", Required: true},
			"body":    {Type: "string", Description: "Email body content", Required: true},
		},
	}, c.handleSend)
}

func (c *GmailClient) handleSearch(ctx context.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	maxResults, _ := args["max_results"].(int)
	if maxResults <= 0 {
		maxResults = 5
	}
	return c.SearchEmails(ctx, query, maxResults)
}

func (c *GmailClient) handleSend(ctx context.Context, args map[string]any) (any, error) {
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	return c.SendEmail(ctx, to, subject, body)
}

type gmailMessageRef struct {
	ID string `json:"id"`
}

type gmailListResponse struct {
	Messages []gmailMessageRef `json:"messages"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Data string `json:"data"`
}

type gmailPart struct {
	MimeType string        `json:"mimeType"`
	Body     gmailBody     `json:"body"`
	Headers  []gmailHeader `json:"headers"`
	Parts    []gmailPart   `json:"parts"`
}

type gmailMessage struct {
	ID      string    `json:"id"`
	Snippet string    `json:"snippet"`
	Payload gmailPart `json:"payload"`
}

// SearchEmails lists matching message ids and fetches each in full.
func (c *GmailClient) SearchEmails(ctx context.Context, query string, maxResults int) ([]EmailSummary, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(maxResults))

	var listed gmailListResponse
	if err := c.rest.doJSON(ctx, http.MethodGet, c.baseURL+"/messages", q, nil, &listed); err != nil {
		return nil, err
	}
	if len(listed.Messages) == 0 {
		return []EmailSummary{}, nil
	}

	refs := listed.Messages
	if len(refs) > maxResults {
		refs = refs[:maxResults]
	}

	emails := make([]EmailSummary, 0, len(refs))
	for _, ref := range refs {
		var msg gmailMessage
		fetchQuery := url.Values{}
		fetchQuery.Set("format", "full")
		if err := c.rest.doJSON(ctx, http.MethodGet, c.baseURL+"/messages/"+ref.ID, fetchQuery, nil, &msg); err != nil {
			return nil, err
		}
		emails = append(emails, parseEmail(msg))
	}

	log.Debug().Str("query", query).Int("matches", len(emails)).Msg("gmail search completed")
	return emails, nil
}

// SendEmail assembles an RFC 822 message and posts it base64url-encoded.
func (c *GmailClient) SendEmail(ctx context.Context, to, subject, body string) (SendEmailOutput, error) {
	message := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", to, subject, body)
	raw := base64.RawURLEncoding.EncodeToString([]byte(message))

	var sent gmailMessageRef
	err := c.rest.doJSON(ctx, http.MethodPost, c.baseURL+"/messages/send", nil, map[string]string{"raw": raw}, &sent)
	if err != nil {
		return SendEmailOutput{}, err
	}

	log.Info().Str("to", to).Str("message_id", sent.ID).Msg("email sent")
	return SendEmailOutput{ID: sent.ID, To: to}, nil
}

func parseEmail(msg gmailMessage) EmailSummary {
	headers := make(map[string]string, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		headers[h.Name] = h.Value
	}

	body := extractBody(msg.Payload)
	if strings.TrimSpace(body) == "" {
		body = msg.Snippet
	}
	if len(body) > maxEmailBodyChars {
		body = body[:maxEmailBodyChars]
	}

	return EmailSummary{
		ID:      msg.ID,
		Subject: headers["Subject"],
		From:    headers["From"],
		Date:    headers["Date"],
		Snippet: msg.Snippet,
		Body:    body,
	}
}

// extractBody walks the MIME tree preferring text/plain, recursing into
// nested multiparts, with stripped text/html as a last resort.
func extractBody(payload gmailPart) string {
	var body string
	if payload.Body.Data != "" {
		if decoded, err := decodeBase64URL(payload.Body.Data); err == nil {
			body = string(decoded)
		}
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body.Data != "" {
			if decoded, err := decodeBase64URL(part.Body.Data); err == nil && strings.TrimSpace(string(decoded)) != "" {
				return string(decoded)
			}
		}
		if strings.HasPrefix(part.MimeType, "multipart/") || len(part.Parts) > 0 {
			if nested := extractBody(part); strings.TrimSpace(nested) != "" {
				return nested
			}
		}
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/html" && part.Body.Data != "" {
			decoded, err := decodeBase64URL(part.Body.Data)
			if err != nil {
				continue
			}
			text := htmlTagPattern.ReplaceAllString(string(decoded), " ")
			text = strings.Join(strings.Fields(text), " ")
			if text != "" {
				return text
			}
		}
	}

	return body
}
