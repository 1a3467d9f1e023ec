// Package sync turns the channels of background work (import progress and
// mail merge runs) into Bubble Tea messages.
package sync

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/progress"
)

// ImportProgressMsg is a tea.Msg carrying one tick of an import task.
type ImportProgressMsg struct {
	Task  *progress.Task
	Event progress.Event
}

// ImportDoneMsg is sent once an import task's events channel is closed.
type ImportDoneMsg struct {
	Task *progress.Task
	Err  error
}

// MergeProgressMsg is a tea.Msg carrying the progress of a merge run.
type MergeProgressMsg struct {
	Run      *merge.Run
	Progress merge.Progress
}

// MergeDoneMsg is sent once a merge run has stopped.
type MergeDoneMsg struct {
	Run    *merge.Run
	Report merge.Report
	Err    error
}

// WaitForImport returns a tea.Cmd that waits for the next event of t.
// Call it again after handling an ImportProgressMsg to keep listening.
func WaitForImport(t *progress.Task) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-t.Events()
		if !ok {
			<-t.Done()
			return ImportDoneMsg{Task: t, Err: t.Err()}
		}
		return ImportProgressMsg{Task: t, Event: ev}
	}
}

// WaitForMerge returns a tea.Cmd that waits for the next progress report
// of r. Call it again after handling a MergeProgressMsg.
func WaitForMerge(r *merge.Run) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-r.Events()
		if !ok {
			<-r.Done()
			rep, err := r.Result()
			return MergeDoneMsg{Run: r, Report: rep, Err: err}
		}
		return MergeProgressMsg{Run: r, Progress: p}
	}
}
