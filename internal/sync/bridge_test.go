package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/progress"
)

func TestWaitForImport(t *testing.T) {
	task := progress.Run(context.Background(), []progress.Phase{{Label: "x", From: 0, To: 2}})

	var pct []int
	cmd := WaitForImport(task)
	for {
		msg := cmd()
		if done, ok := msg.(ImportDoneMsg); ok {
			assert.Same(t, task, done.Task)
			assert.NoError(t, done.Err)
			break
		}
		p, ok := msg.(ImportProgressMsg)
		require.True(t, ok, "unexpected %T", msg)
		pct = append(pct, p.Event.Percent)
	}
	assert.Equal(t, []int{1, 2}, pct)
}

func TestWaitForImport_Cancelled(t *testing.T) {
	task := progress.Run(context.Background(), []progress.Phase{{From: 0, To: 5, Duration: time.Hour}})
	task.Cancel()

	msg := WaitForImport(task)()
	done, ok := msg.(ImportDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.Err, context.Canceled)
}

func TestWaitForMerge(t *testing.T) {
	var sent []string
	e := merge.NewEngine(merge.TransportFunc(func(_ context.Context, m merge.Message) error {
		sent = append(sent, m.To)
		return nil
	}), merge.WithDelay(0))

	headers := []string{"First", "Email"}
	records := []model.Record{
		model.NewRecord(headers, []string{"A", "a@x.io"}),
		model.NewRecord(headers, []string{"B", "b@x.io"}),
	}
	run := e.StartAsync(context.Background(), model.Template{Subject: "s", Body: "b"},
		model.FieldMapping{FirstName: "First", Email: "Email"}, records)

	var last merge.Progress
	cmd := WaitForMerge(run)
	for {
		msg := cmd()
		if done, ok := msg.(MergeDoneMsg); ok {
			require.NoError(t, done.Err)
			assert.Equal(t, merge.Report{Total: 2, Sent: 2}, done.Report)
			break
		}
		last = msg.(MergeProgressMsg).Progress
	}
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, sent)
}
