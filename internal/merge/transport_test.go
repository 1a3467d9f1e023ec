package merge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/listmailer/internal/model"
)

var sample = Message{
	Index:   1,
	Total:   2,
	From:    "noreply@example.com",
	To:      "ann@x.io",
	Subject: "Welcome to Our Service!",
	Body:    "Hi Ann,\n\nThanks.",
}

func TestLogTransport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewLogTransport(zap.New(core))

	require.NoError(t, tr.Deliver(context.Background(), sample))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["index"])
	assert.Equal(t, int64(2), fields["total"])
	assert.Equal(t, "ann@x.io", fields["to"])
	assert.Equal(t, sample.Subject, fields["subject"])
	assert.Equal(t, sample.Body, fields["body"])
	assert.Contains(t, entries[0].Message, "1/2")
}

func TestCompose(t *testing.T) {
	raw, err := Compose(sample)
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, sample.Subject, subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "ann@x.io", to[0].Address)

	id, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	p, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(p.Body)
	require.NoError(t, err)
	assert.Equal(t, sample.Body, string(body))
}

func TestCompose_BadAddress(t *testing.T) {
	bad := sample
	bad.To = "not an address"
	_, err := Compose(bad)
	assert.Error(t, err)
}

type fakeAppender struct {
	mailbox string
	raw     []byte
	err     error
}

func (f *fakeAppender) Append(_ context.Context, mailbox string, raw []byte) error {
	f.mailbox = mailbox
	f.raw = raw
	return f.err
}

func TestSentCopyTransport(t *testing.T) {
	inner := &recorder{}
	app := &fakeAppender{}
	tr := NewSentCopyTransport(inner, app, "")

	require.NoError(t, tr.Deliver(context.Background(), sample))
	assert.Len(t, inner.sent(), 1)
	assert.Equal(t, "Sent", app.mailbox)
	assert.Contains(t, string(app.raw), "Subject: Welcome to Our Service!")

	app.err = errors.New("quota")
	err := tr.Deliver(context.Background(), sample)
	assert.ErrorIs(t, err, app.err)
	assert.Len(t, inner.sent(), 2, "delivery happens before the copy is filed")

	failing := NewSentCopyTransport(&recorder{fail: map[int]error{1: io.EOF}}, &fakeAppender{}, "Outbox")
	assert.ErrorIs(t, failing.Deliver(context.Background(), sample), io.EOF)
}

// smtpSink is an in-process SMTP backend that records every message.
type smtpSink struct {
	mu   sync.Mutex
	from []string
	to   []string
	data [][]byte
}

func (b *smtpSink) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &sinkSession{b: b}, nil
}

type sinkSession struct {
	b *smtpSink
}

func (s *sinkSession) Mail(from string, _ *smtp.MailOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.from = append(s.b.from, from)
	return nil
}

func (s *sinkSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.to = append(s.b.to, to)
	return nil
}

func (s *sinkSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.data = append(s.b.data, data)
	return nil
}

func (s *sinkSession) Reset() {}

func (s *sinkSession) Logout() error { return nil }

func (s *sinkSession) AuthPlain(_, _ string) error { return nil }

func TestSMTPTransport(t *testing.T) {
	sink := &smtpSink{}
	srv := smtp.NewServer(sink)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)

	tr := NewSMTPTransport(model.SMTPConfig{Host: host, Port: port}, "")
	require.NoError(t, tr.Deliver(context.Background(), sample))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{"noreply@example.com"}, sink.from)
	assert.Equal(t, []string{"ann@x.io"}, sink.to)
	require.Len(t, sink.data, 1)
	assert.Contains(t, string(sink.data[0]), "Subject: Welcome to Our Service!")
}

func TestSMTPTransport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := NewSMTPTransport(model.SMTPConfig{Host: "127.0.0.1", Port: "1"}, "")
	assert.ErrorIs(t, tr.Deliver(ctx, sample), context.Canceled)
}

func TestSMTPTransport_Verify(t *testing.T) {
	srv := smtp.NewServer(&smtpSink{})
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)

	assert.NoError(t, NewSMTPTransport(model.SMTPConfig{Host: host, Port: port}, "").Verify(context.Background()))
	assert.Error(t, NewSMTPTransport(model.SMTPConfig{Host: "127.0.0.1", Port: "1"}, "").Verify(context.Background()))
}
