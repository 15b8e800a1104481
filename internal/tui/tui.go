// Package tui renders run progress with Bubble Tea.
package tui

import (
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/pipeline"
)

// Run starts the TUI and blocks until it completes.
func Run(events <-chan Event, opts ...ModelOption) error {
	model := NewModel(events, opts...)
	// Don't use alt screen - render inline
	p := tea.NewProgram(model)
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// Non-blocking send - drop event if channel is full
	}
}

// SendTaskEvent is a convenience function for sending task events.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{
		Task:   task,
		Status: status,
	}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

// TaskEventOption is a functional option for TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message on a TaskEvent.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) {
		e.Message = msg
	}
}

// WithCount sets the count on a TaskEvent.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) {
		e.Count = count
	}
}

// WithProgress sets the progress on a TaskEvent.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) {
		e.Progress = progress
	}
}

// WithError sets the error on a TaskEvent.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) {
		e.Error = err
	}
}

var stageTasks = map[pipeline.Stage]TaskID{
	pipeline.StageFetch:     TaskFetch,
	pipeline.StageScore:     TaskScore,
	pipeline.StageTrack:     TaskTrack,
	pipeline.StageSummarize: TaskSummarize,
}

// Progress adapts pipeline progress reports into task events on ch.
// Intermediate reports closer together than constants.TUIUpdateInterval are
// dropped. It is safe for concurrent use.
func Progress(ch chan<- Event) pipeline.ProgressFunc {
	var (
		mu   sync.Mutex
		last = make(map[pipeline.Stage]time.Time)
	)
	return func(stage pipeline.Stage, completed, total int) {
		task, ok := stageTasks[stage]
		if !ok {
			return
		}

		done := completed >= total
		mu.Lock()
		now := time.Now()
		if completed > 0 && !done && now.Sub(last[stage]) < constants.TUIUpdateInterval {
			mu.Unlock()
			return
		}
		last[stage] = now
		mu.Unlock()

		if done {
			SendTaskEvent(ch, task, StatusComplete, WithCount(total))
			return
		}
		SendTaskEvent(ch, task, StatusRunning,
			WithMessage(fmt.Sprintf("%d/%d", completed, total)),
			WithProgress(float64(completed)/float64(total)),
		)
	}
}
