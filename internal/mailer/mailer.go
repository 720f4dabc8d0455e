// Package mailer sends the daily briefing e-mail: a plain-text part for
// pagers and a styled HTML part mirroring the historical briefing layout.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/vninfra/infranews/internal/notify"
)

// Config carries the SMTP account and recipients.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	To       []string
	Subject  string // optional override; unset means the digest's dated subject
}

// Notifier delivers the briefing over SMTP with STARTTLS.
type Notifier struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Notifier {
	return &Notifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *Notifier) Name() string { return "email" }

func (n *Notifier) Send(ctx context.Context, b *notify.Briefing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.message(b)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := n.sendMail(addr, auth, n.cfg.From, n.cfg.To, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (n *Notifier) subject(b *notify.Briefing) string {
	if n.cfg.Subject != "" {
		return n.cfg.Subject
	}
	return b.Digest.EmailSubject()
}

// message assembles a multipart/alternative MIME message. Parts are
// base64-encoded since headlines and summaries are rarely ASCII-clean.
func (n *Notifier) message(b *notify.Briefing) ([]byte, error) {
	html, err := briefingHTML(b)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	alt := multipart.NewWriter(&body)
	if err := writePart(alt, "text/plain", b.Text()); err != nil {
		return nil, err
	}
	if err := writePart(alt, "text/html", html); err != nil {
		return nil, err
	}
	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	from := mail.Address{Name: n.cfg.FromName, Address: n.cfg.From}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.BEncoding.Encode("utf-8", n.subject(b)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", alt.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func writePart(w *multipart.Writer, contentType, content string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+"; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "base64")
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}

	enc := base64.StdEncoding.EncodeToString([]byte(content))
	for len(enc) > 76 {
		if _, err := io.WriteString(part, enc[:76]+"\r\n"); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err = io.WriteString(part, enc+"\r\n")
	return err
}
