package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Message is one filled template ready for delivery.
type Message struct {
	// Index is 1-based within the run.
	Index   int
	Total   int
	From    string
	To      string
	Subject string
	Body    string
}

// Transport delivers a single message.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, msg Message) error

// Deliver calls f.
func (f TransportFunc) Deliver(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogTransport writes every message to the logger instead of sending it.
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport returns a LogTransport. A nil logger discards output.
func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

// Deliver logs msg.
func (t *LogTransport) Deliver(_ context.Context, msg Message) error {
	t.logger.Info(fmt.Sprintf("Email %d/%d → %s", msg.Index, msg.Total, msg.To),
		zap.Int("index", msg.Index),
		zap.Int("total", msg.Total),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Compose renders msg as an RFC 5322 plain-text message.
func Compose(msg Message) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("parsing sender %q: %w", msg.From, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient %q: %w", msg.To, err)
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}
