// Package mailer sends the composed notification message over SMTP with
// inline image embedding. It is a thin transport wrapper; composing the
// content is the caller's job.
package mailer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Message is one outbound mail with html+plain alternatives, inline images
// referenced by cid, and optional attachments.
type Message struct {
	To        string
	Subject   string
	BodyHTML  string
	BodyPlain string
	// Embeds are image file paths; each is referenced from the HTML body as
	// cid:<basename>.
	Embeds []string
	// Attachments carry in-memory content (debug logs).
	Attachments []Attachment
}

// Attachment is an in-memory mail attachment.
type Attachment struct {
	Name    string
	MIME    string
	Content []byte
}

// Sender delivers a message and returns the transport message id.
type Sender interface {
	Send(msg Message) (string, error)
}

// Mailer sends messages through a single SMTP relay.
type Mailer struct {
	server   string
	port     int
	username string
	password string
	from     string
	fromName string
}

var _ Sender = (*Mailer)(nil)

// New builds a Mailer. Username may be empty for relays without auth.
func New(server string, port int, username, password, from, fromName string) *Mailer {
	return &Mailer{
		server:   server,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

// Send validates the recipient, assigns a message id, and delivers the
// message. The returned id is what the caller reports back to the alerting
// pipeline.
func (m *Mailer) Send(msg Message) (string, error) {
	if !strings.Contains(msg.To, "@") {
		return "", fmt.Errorf("invalid email address: %s", msg.To)
	}

	messageID := newMessageID(m.from)

	message := gomail.NewMessage()
	message.SetHeader("Message-ID", "<"+messageID+">")
	message.SetAddressHeader("From", m.from, m.fromName)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.BodyPlain)
	message.AddAlternative("text/html", msg.BodyHTML)

	for _, path := range msg.Embeds {
		message.Embed(path)
	}
	for _, att := range msg.Attachments {
		content := att.Content
		message.Attach(att.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {att.MIME}}))
	}

	dialer := gomail.NewDialer(m.server, m.port, m.username, m.password)
	if err := dialer.DialAndSend(message); err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	return messageID, nil
}

// newMessageID builds an RFC 5322 style id from a fresh UUID and the sender
// domain.
func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	} else if host, err := os.Hostname(); err == nil {
		domain = host
	}
	return uuid.New().String() + "@" + domain
}
