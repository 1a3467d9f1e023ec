package merge

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/nhle/listmailer/internal/model"
)

// SMTPTransport submits messages to an SMTP server, one connection per
// message.
type SMTPTransport struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewSMTPTransport creates an SMTP transport. With tls unset the
// connection is upgraded through STARTTLS when the server offers it.
func NewSMTPTransport(cfg model.SMTPConfig, password string) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: password,
		tls:      cfg.TLS,
	}
}

// Deliver composes msg and sends it.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := Compose(msg)
	if err != nil {
		return err
	}

	c, err := t.connect()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SendMail(msg.From, []string{msg.To}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("sending to %s: %w", msg.To, err)
	}
	return c.Quit()
}

// Verify connects and authenticates without sending anything.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := t.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Quit()
}

func (t *SMTPTransport) connect() (*smtp.Client, error) {
	addr := net.JoinHostPort(t.host, t.port)
	tlsConfig := &tls.Config{ServerName: t.host, MinVersion: tls.VersionTLS12}

	var c *smtp.Client
	var err error
	if t.tls {
		c, err = smtp.DialTLS(addr, tlsConfig)
	} else {
		c, err = smtp.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to SMTP %s: %w", addr, err)
	}

	if !t.tls {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				c.Close()
				return nil, fmt.Errorf("starting TLS with %s: %w", addr, err)
			}
		}
	}

	if t.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.username, t.password)); err != nil {
			c.Close()
			return nil, fmt.Errorf("authenticating %s on %s: %w", t.username, addr, err)
		}
	}

	return c, nil
}
