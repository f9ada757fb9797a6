package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// ErrHistoryExpired means the mailbox no longer keeps history that old and a
// full sync is needed.
var ErrHistoryExpired = errors.New("mail history expired")

// MailMessage is the part of an email the watcher looks at.
type MailMessage struct {
	ID      string
	Subject string
	From    string
	Body    string
}

// Mailbox is the student's inbox as seen by the status watcher.
type Mailbox interface {
	// Address is the mailbox owner's email address.
	Address(ctx context.Context) (string, error)
	// FullSync lists recent candidate message ids and the current history id.
	FullSync(ctx context.Context) ([]string, uint64, error)
	// IncrementalSync lists ids added since startID, or ErrHistoryExpired.
	IncrementalSync(ctx context.Context, startID uint64) ([]string, uint64, error)
	Fetch(ctx context.Context, id string) (*MailMessage, error)
}

const fullSyncQuery = "subject:(application OR research OR position OR interview OR update OR offer OR decision OR status) newer_than:7d"

// GmailMailbox reads the authorized user's Gmail inbox.
type GmailMailbox struct {
	client   *gmail.Service
	attempts uint
	delay    time.Duration
}

func NewGmailMailbox(client *gmail.Service) *GmailMailbox {
	return &GmailMailbox{client: client, attempts: 3, delay: time.Second}
}

func (m *GmailMailbox) Address(ctx context.Context) (string, error) {
	var profile *gmail.Profile
	err := m.retry(ctx, func() error {
		var e error
		profile, e = m.client.Users.GetProfile("me").Context(ctx).Do()
		return e
	})
	if err != nil {
		return "", err
	}
	return profile.EmailAddress, nil
}

// FullSync scans the last 7 days and returns the history id to resume from.
func (m *GmailMailbox) FullSync(ctx context.Context) ([]string, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := m.retry(ctx, func() error {
		var e error
		resp, e = m.client.Users.Messages.List("me").Q(fullSyncQuery).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	// the profile's current history id is the new anchor
	var profile *gmail.Profile
	err = m.retry(ctx, func() error {
		var e error
		profile, e = m.client.Users.GetProfile("me").Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}
	return ids, profile.HistoryId, nil
}

// IncrementalSync asks only for messages added since startID.
func (m *GmailMailbox) IncrementalSync(ctx context.Context, startID uint64) ([]string, uint64, error) {
	var ids []string
	latest := startID
	pageToken := ""
	for {
		var resp *gmail.ListHistoryResponse
		err := m.retry(ctx, func() error {
			// label changes are irrelevant
			call := m.client.Users.History.List("me").StartHistoryId(startID).HistoryTypes("messageAdded")
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var e error
			resp, e = call.Context(ctx).Do()
			return e
		})
		if isHistoryExpiredError(err) {
			return nil, 0, fmt.Errorf("%w: %v", ErrHistoryExpired, err)
		}
		if err != nil {
			return nil, 0, err
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil {
					ids = append(ids, added.Message.Id)
				}
			}
		}
		if resp.HistoryId > latest {
			latest = resp.HistoryId
		}
		if resp.NextPageToken == "" {
			return ids, latest, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (m *GmailMailbox) Fetch(ctx context.Context, id string) (*MailMessage, error) {
	var msg *gmail.Message
	err := m.retry(ctx, func() error {
		var e error
		msg, e = m.client.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, err
	}
	return toMailMessage(msg), nil
}

// retry backs off exponentially but gives up at once on an expired history id.
func (m *GmailMailbox) retry(ctx context.Context, f func() error) error {
	return retry.Do(f,
		retry.Context(ctx),
		retry.Attempts(m.attempts),
		retry.Delay(m.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !isHistoryExpiredError(err) }),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("⚠️  Gmail API error: %v. Retrying (%d/%d)...", err, n+1, m.attempts)
		}),
	)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}

func toMailMessage(msg *gmail.Message) *MailMessage {
	out := &MailMessage{ID: msg.Id}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			out.Subject = h.Value
		case "from":
			out.From = h.Value
		}
	}
	out.Body = emailBody(msg.Payload)
	return out
}

// emailBody prefers text/plain over text/html, searching nested parts.
func emailBody(part *gmail.MessagePart) string {
	if text := findPart(part, "text/plain"); text != "" {
		return text
	}
	if html := findPart(part, "text/html"); html != "" {
		return html
	}
	if part.Body != nil {
		return decodeBody(part.Body.Data)
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if text := findPart(p, mimeType); text != "" {
			return text
		}
	}
	return ""
}

// Gmail bodies are base64url, usually without padding.
func decodeBody(data string) string {
	d, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(d)
}
