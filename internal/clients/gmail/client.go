package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jobdeck/jobdeck/internal/entities"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client is the mail collaborator. The bearer token comes from an external
// OAuth flow; refresh and expiry are not handled here.
type Client struct {
	svc *gmailapi.Service
}

func NewClient(ctx context.Context, accessToken string) (*Client, error) {

	if accessToken == "" {
		return nil, fmt.Errorf("gmail access token is missing")
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("can't create gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// ListRecent returns up to limit newest inbox messages with decoded bodies.
func (c *Client) ListRecent(ctx context.Context, limit int64) ([]entities.Email, error) {

	list, err := c.svc.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(limit).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	var emails []entities.Email
	for _, ref := range list.Messages {
		msg, err := c.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("error getting message %v: %w", ref.Id, err)
		}
		emails = append(emails, toEmail(msg))
	}

	return emails, nil
}

func (c *Client) Send(ctx context.Context, to, from, subject, body string) error {

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n\r\n%s", from, to, subject, body)

	_, err := c.svc.Users.Messages.Send("me", &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error sending message to %v: %w", to, err)
	}
	return nil
}

func toEmail(msg *gmailapi.Message) entities.Email {

	email := entities.Email{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			email.From = header.Value
		case "Subject":
			email.Subject = header.Value
		}
	}

	email.Body = extractBody(msg.Payload)
	if email.Body == "" {
		email.Body = msg.Snippet
	}
	return email
}

// extractBody walks the MIME tree and returns the first text/plain part.
func extractBody(part *gmailapi.MessagePart) string {

	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil {
		if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			return string(decoded)
		}
	}

	for _, child := range part.Parts {
		if body := extractBody(child); body != "" {
			return body
		}
	}
	return ""
}
