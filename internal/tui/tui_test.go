package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/ghreport/internal/pipeline"
)

func TestTaskID(t *testing.T) {
	ids := []TaskID{TaskAuth, TaskFetch, TaskScore, TaskTrack, TaskSummarize}
	seen := make(map[TaskID]bool)

	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate task ID: %d", id)
		}
		seen[id] = true
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskFetch, "Fetching activity").Counting("repositories")

	if task.ID != TaskFetch {
		t.Errorf("expected ID %d, got %d", TaskFetch, task.ID)
	}
	if task.Status != StatusPending {
		t.Errorf("expected status %d, got %d", StatusPending, task.Status)
	}
	if task.Unit != "repositories" {
		t.Errorf("expected unit 'repositories', got %q", task.Unit)
	}
}

func TestTaskView(t *testing.T) {
	prog := progress.New(progress.WithWidth(10), progress.WithoutPercentage())

	tests := []struct {
		name    string
		task    Task
		want    []string
		notWant []string
	}{
		{
			name:    "complete with unit",
			task:    Task{Name: "Fetching activity", Unit: "repositories", Status: StatusComplete, Count: 12, Message: "11/12"},
			want:    []string{"Fetching activity", "(12 repositories)"},
			notWant: []string{"11/12"},
		},
		{
			name: "running with progress",
			task: Task{Name: "Summarizing", Status: StatusRunning, Progress: 0.5, Message: "5/10"},
			want: []string{"Summarizing", "50%", "(5/10)"},
		},
		{
			name: "error",
			task: Task{Name: "Summarizing", Status: StatusError, Error: errors.New("invalid API key")},
			want: []string{"invalid API key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.task.View(">", prog)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("View() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("View() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestSendEvent(t *testing.T) {
	ch := make(chan Event, 1)

	SendEvent(ch, TaskEvent{Task: TaskAuth, Status: StatusComplete})
	// Channel is full; this one is dropped rather than blocking.
	SendEvent(ch, TaskEvent{Task: TaskFetch})

	received := <-ch
	te, ok := received.(TaskEvent)
	if !ok {
		t.Fatal("expected TaskEvent type")
	}
	if te.Task != TaskAuth {
		t.Errorf("expected task %d, got %d", TaskAuth, te.Task)
	}
	select {
	case e := <-ch:
		t.Errorf("unexpected second event %v", e)
	default:
	}
}

func TestSendEventNilChannel(t *testing.T) {
	// Should not panic with nil channel
	SendEvent(nil, TaskEvent{})
}

func TestSendTaskEvent(t *testing.T) {
	ch := make(chan Event, 1)
	testErr := errors.New("test error")

	SendTaskEvent(ch, TaskSummarize, StatusRunning,
		WithMessage("3/4"),
		WithCount(42),
		WithProgress(0.75),
		WithError(testErr),
	)

	te, ok := (<-ch).(TaskEvent)
	if !ok {
		t.Fatal("expected TaskEvent type")
	}
	if te.Task != TaskSummarize || te.Message != "3/4" || te.Count != 42 || te.Progress != 0.75 {
		t.Errorf("unexpected event %+v", te)
	}
	if te.Error != testErr {
		t.Errorf("expected error %v, got %v", testErr, te.Error)
	}
}

func drain(ch chan Event) []TaskEvent {
	var out []TaskEvent
	for {
		select {
		case e := <-ch:
			out = append(out, e.(TaskEvent))
		default:
			return out
		}
	}
}

func TestProgress(t *testing.T) {
	ch := make(chan Event, 16)
	report := Progress(ch)

	report(pipeline.StageFetch, 0, 4)
	report(pipeline.StageFetch, 1, 4) // within the update interval, dropped
	report(pipeline.StageFetch, 4, 4)

	events := drain(ch)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Task != TaskFetch || events[0].Status != StatusRunning || events[0].Message != "0/4" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Status != StatusComplete || events[1].Count != 4 {
		t.Errorf("unexpected final event %+v", events[1])
	}
}

func TestProgressStageMapping(t *testing.T) {
	tests := []struct {
		stage pipeline.Stage
		task  TaskID
	}{
		{pipeline.StageFetch, TaskFetch},
		{pipeline.StageScore, TaskScore},
		{pipeline.StageTrack, TaskTrack},
		{pipeline.StageSummarize, TaskSummarize},
	}

	for _, tt := range tests {
		ch := make(chan Event, 1)
		Progress(ch)(tt.stage, 1, 1)
		events := drain(ch)
		if len(events) != 1 || events[0].Task != tt.task || events[0].Status != StatusComplete {
			t.Errorf("stage %d: unexpected events %+v", tt.stage, events)
		}
	}
}

func TestModelUpdate(t *testing.T) {
	events := make(chan Event)
	m := NewModel(events)

	next, _ := m.Update(TaskEvent{Task: TaskAuth, Status: StatusComplete, Message: "alice"})
	m = next.(Model)
	next, _ = m.Update(TaskEvent{Task: TaskSummarize, Status: StatusRunning, Progress: 0.5, Message: "1/2"})
	m = next.(Model)
	next, _ = m.Update(RateLimitEvent{Limited: true, ResetAt: time.Now().Add(time.Hour)})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"Authenticated as", "alice", "Summarizing", "rate limit", "Ctrl+C"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	next, _ = m.Update(DoneEvent{})
	if strings.Contains(next.(Model).View(), "Ctrl+C") {
		t.Error("cancel hint should disappear once done")
	}
}

func TestModelCtrlCCancels(t *testing.T) {
	cancelled := 0
	m := NewModel(make(chan Event), WithCancel(func() { cancelled++ }))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cancelled != 1 {
		t.Errorf("first ctrl+c should cancel once, got %d", cancelled)
	}
	if cmd != nil {
		t.Error("first ctrl+c should wait for the partial report")
	}
	if !strings.Contains(next.View(), "Cancelling") {
		t.Errorf("view should show cancelling:\n%s", next.View())
	}

	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("second ctrl+c should quit")
	}
	if cancelled != 1 {
		t.Errorf("second ctrl+c should not cancel again, got %d", cancelled)
	}
}

func TestModelCtrlCWithoutCancelQuits(t *testing.T) {
	m := NewModel(make(chan Event))
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c should quit when no cancel func is set")
	}
}

func TestDryRunTasks(t *testing.T) {
	for _, task := range DryRunTasks() {
		if task.ID == TaskSummarize || task.ID == TaskTrack {
			t.Errorf("dry run should not list task %q", task.Name)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	statuses := []TaskStatus{StatusPending, StatusRunning, StatusComplete, StatusError, StatusSkipped}

	for _, status := range statuses {
		icon := StatusIcon(status, ">")
		if icon == "" {
			t.Errorf("StatusIcon returned empty string for status %d", status)
		}
	}
}
