package merge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/model"
)

// DefaultDelay is the pause between two records.
const DefaultDelay = 100 * time.Millisecond

// Progress is reported after each record.
type Progress struct {
	Current int
	Total   int
	Percent int
}

// Report summarizes a run.
type Report struct {
	Total int
	Sent  int
}

// Engine runs mail merges over a Transport, strictly one record at a time.
type Engine struct {
	transport Transport
	from      string
	delay     time.Duration
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDelay sets the pause between records. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(e *Engine) { e.from = from }
}

// WithLogger sets the logger used for run summaries.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine delivering through t.
func NewEngine(t Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: t,
		from:      "noreply@example.com",
		delay:     DefaultDelay,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send validates the mapping and then fills and delivers tpl for every
// record in order. onProgress may be nil. On cancellation the partial report
// is returned with ctx.Err().
func (e *Engine) Send(
	ctx context.Context,
	tpl model.Template,
	m model.FieldMapping,
	records []model.Record,
	onProgress func(Progress),
) (Report, error) {
	total := len(records)
	rep := Report{Total: total}

	if err := Validate(m, records); err != nil {
		return rep, err
	}

	e.logger.Info("mail merge started",
		zap.String("template", tpl.Title),
		zap.Int("total", total),
	)

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		vars := Vars(m, r)
		msg := Message{
			Index:   i + 1,
			Total:   total,
			From:    e.from,
			To:      strings.TrimSpace(vars[VarEmail]),
			Subject: Fill(tpl.Subject, vars),
			Body:    Fill(tpl.Body, vars),
		}

		if err := e.transport.Deliver(ctx, msg); err != nil {
			e.logger.Warn("delivery failed",
				zap.Int("index", msg.Index),
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return rep, fmt.Errorf("delivering message %d/%d to %s: %w", msg.Index, total, msg.To, err)
		}
		rep.Sent++

		if onProgress != nil {
			onProgress(Progress{Current: i + 1, Total: total, Percent: Percent(i+1, total)})
		}

		if i < total-1 && e.delay > 0 {
			if err := sleep(ctx, e.delay); err != nil {
				return rep, err
			}
		}
	}

	e.logger.Info("mail merge finished", zap.Int("sent", rep.Sent))
	return rep, nil
}

// Vars builds the placeholder values for one record.
func Vars(m model.FieldMapping, r model.Record) map[string]string {
	vars := map[string]string{
		VarFirstName: "",
		VarLastName:  "",
		VarEmail:     "",
	}
	if m.FirstName != "" {
		vars[VarFirstName] = r.Value(m.FirstName)
	}
	if m.LastName != "" {
		vars[VarLastName] = r.Value(m.LastName)
	}
	if m.Email != "" {
		vars[VarEmail] = r.Value(m.Email)
	}
	return vars
}

// Percent returns round(current/total*100), or 0 for an empty run.
func Percent(current, total int) int {
	if total <= 0 {
		return 0
	}
	return (current*100 + total/2) / total
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
