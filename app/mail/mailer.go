// Package mail composes and delivers the outbound messages of the tracker.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"text/template"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/config"

	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"
)

const (
	passwordResetSubject = "Password reset request"

	dialTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second
)

var passwordResetBody = template.Must(template.New("password-reset").Parse(`Hello {{.Name}},

To reset your password, open the following link:

{{.Link}}

The link is valid for one hour and can be used once.
If you did not make this request, ignore this email and no changes will be made.
`))

// DeliveryError wraps a failure to hand a message to the SMTP relay.
type DeliveryError struct {
	Addr string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("smtp delivery via %s failed: %v", e.Addr, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type SMTPMailer struct {
	cfg  config.MailConfig
	dial dialFunc
	now  func() time.Time
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	dialer := &net.Dialer{Timeout: dialTimeout}
	return &SMTPMailer{
		cfg:  cfg,
		dial: dialer.DialContext,
		now:  time.Now,
	}
}

// SendPasswordReset delivers the reset link to one recipient. The whole SMTP
// exchange is bounded by ctx and by sendTimeout, whichever ends first.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := ComposePasswordReset(m.cfg.From, to, name, link, m.now())
	if err != nil {
		return err
	}

	if err = m.deliver(ctx, to, msg); err != nil {
		return &DeliveryError{Addr: m.cfg.Addr(), Err: err}
	}

	logrus.WithField("to", to).Debug("Password reset email sent")
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	conn, err := m.dial(ctx, "tcp", m.cfg.Addr())
	if err != nil {
		return err
	}
	// Closing the connection aborts whatever command is in flight.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client := smtp.NewClient(conn)
	defer client.Close()
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		client.CommandTimeout = remaining
		client.SubmissionTimeout = remaining
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	if m.cfg.Username != "" {
		if err = client.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return err
		}
	}

	if err = client.SendMail(m.cfg.From, []string{to}, bytes.NewReader(msg)); err != nil {
		return err
	}
	return client.Quit()
}

// ComposePasswordReset renders the RFC 5322 message carrying the reset link.
func ComposePasswordReset(from, to, name, link string, date time.Time) ([]byte, error) {
	fromAddr, err := gomail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	toAddr, err := gomail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	toAddr.Name = name

	var h gomail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*gomail.Address{fromAddr})
	h.SetAddressList("To", []*gomail.Address{toAddr})
	h.SetSubject(passwordResetSubject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err = h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if err = renderPasswordReset(w, name, link); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func renderPasswordReset(w io.Writer, name, link string) error {
	return passwordResetBody.Execute(w, struct {
		Name string
		Link string
	}{Name: name, Link: link})
}
