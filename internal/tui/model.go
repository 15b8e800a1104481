package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the run progress display.
type Model struct {
	tasks    []Task
	spinner  spinner.Model
	progress progress.Model
	events   <-chan Event

	username       string
	rateLimited    bool
	rateLimitReset time.Time

	// cancel stops the run. The first interrupt cancels and waits for the
	// pipeline to drain; a second one quits immediately.
	cancel     func()
	cancelling bool
	done       bool
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// WithCancel sets the function called when the user interrupts the run.
func WithCancel(cancel func()) ModelOption {
	return func(m *Model) {
		m.cancel = cancel
	}
}

// DefaultTasks returns the task list for a full report run.
func DefaultTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskFetch, "Fetching activity").Counting("repositories"),
		NewTask(TaskScore, "Scoring items").Counting("items"),
		NewTask(TaskTrack, "Updating tracked repositories"),
		NewTask(TaskSummarize, "Summarizing").Counting("items"),
	}
}

// DryRunTasks returns the task list for a dry run, which neither tracks
// repositories nor calls the summarizer.
func DryRunTasks() []Task {
	return DefaultTasks()[:3]
}

// NewModel creates a new TUI model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		tasks:   DefaultTasks(),
		spinner: s,
		progress: progress.New(
			progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
			progress.WithWidth(25),
			progress.WithoutPercentage(),
		),
		events: events,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and begins reading events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			return m.interrupt()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case TaskEvent:
		cmd := m.applyTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) interrupt() (tea.Model, tea.Cmd) {
	if m.cancel == nil || m.cancelling {
		return m, tea.Quit
	}
	m.cancel()
	m.cancelling = true
	return m, nil
}

// applyTask merges an event into the matching task.
func (m *Model) applyTask(e TaskEvent) tea.Cmd {
	var cmd tea.Cmd
	for i := range m.tasks {
		t := &m.tasks[i]
		if t.ID != e.Task {
			continue
		}
		t.Status = e.Status
		if e.Message != "" {
			t.Message = e.Message
		}
		if e.Count > 0 {
			t.Count = e.Count
		}
		if e.Progress > 0 {
			t.Progress = e.Progress
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Error != nil {
			t.Error = e.Error
		}
		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		break
	}
	return cmd
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	for _, task := range m.tasks {
		if task.ID == TaskAuth {
			b.WriteString(m.authLine(task))
		} else {
			b.WriteString(task.View(m.spinner.View(), m.progress))
		}
		b.WriteByte('\n')
	}

	if m.rateLimited {
		if wait := time.Until(m.rateLimitReset).Round(time.Second); wait > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("\n  GitHub rate limit reached, requests paused (resets in %s)\n", wait)))
		}
	}

	switch {
	case m.done:
	case m.cancelling:
		b.WriteString(warnStyle.Render("\n  Cancelling, the partial report follows. Press Ctrl+C again to quit now."))
	default:
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteByte('\n')

	return b.String()
}

func (m Model) authLine(task Task) string {
	switch task.Status {
	case StatusComplete:
		if m.username != "" {
			return fmt.Sprintf("  %s Authenticated as %s", iconComplete, userStyle.Render(m.username))
		}
		return task.View(m.spinner.View(), m.progress)
	case StatusRunning:
		return fmt.Sprintf("  %s Authenticating...", spinnerStyle.Render(m.spinner.View()))
	default:
		return task.View(m.spinner.View(), m.progress)
	}
}

// waitForEvent returns a command that reads the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
