package merge

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/listmailer/internal/model"
)

// Appender stores a raw message in a mailbox.
type Appender interface {
	Append(ctx context.Context, mailbox string, raw []byte) error
}

// IMAPAppender wraps go-imap v2 for saving sent mail.
type IMAPAppender struct {
	host     string
	port     string
	username string
	password string
}

// NewIMAPAppender creates a new IMAP appender configuration.
func NewIMAPAppender(cfg model.IMAPConfig, password string) *IMAPAppender {
	return &IMAPAppender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
	}
}

// connect establishes an implicit-TLS connection and authenticates. The
// caller is responsible for calling Logout on the returned client.
func (a *IMAPAppender) connect() (*imapclient.Client, error) {
	addr := net.JoinHostPort(a.host, a.port)

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(a.username, a.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", a.username, err)
	}

	return client, nil
}

// Verify logs in and out again.
func (a *IMAPAppender) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := a.connect()
	if err != nil {
		return err
	}
	return client.Logout().Wait()
}

// Append uploads raw to mailbox flagged as seen.
func (a *IMAPAppender) Append(ctx context.Context, mailbox string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := a.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		return fmt.Errorf("writing message to %s: %w", mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append to %s: %w", mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", mailbox, err)
	}
	return nil
}

// SentCopyTransport delivers through next and then files a copy of the
// message in a mailbox.
type SentCopyTransport struct {
	next     Transport
	appender Appender
	mailbox  string
}

// NewSentCopyTransport decorates next.
func NewSentCopyTransport(next Transport, appender Appender, mailbox string) *SentCopyTransport {
	if mailbox == "" {
		mailbox = "Sent"
	}
	return &SentCopyTransport{next: next, appender: appender, mailbox: mailbox}
}

// Deliver sends msg and appends it to the sent mailbox. A failed append is
// reported even though the message went out.
func (t *SentCopyTransport) Deliver(ctx context.Context, msg Message) error {
	if err := t.next.Deliver(ctx, msg); err != nil {
		return err
	}

	raw, err := Compose(msg)
	if err != nil {
		return err
	}
	if err := t.appender.Append(ctx, t.mailbox, raw); err != nil {
		return fmt.Errorf("saving sent copy for %s: %w", msg.To, err)
	}
	return nil
}
