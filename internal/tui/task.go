package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Unit     string // noun shown after Count, e.g. "repositories"
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
}

// NewTask creates a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{ID: id, Name: name, Status: StatusPending}
}

// Counting sets the noun shown after the task's count.
func (t Task) Counting(unit string) Task {
	t.Unit = unit
	return t
}

func (t Task) countLabel() string {
	if t.Unit == "" {
		return fmt.Sprintf("(%d)", t.Count)
	}
	return fmt.Sprintf("(%d %s)", t.Count, t.Unit)
}

// View renders the task. A running task with progress shows a bar and its
// message; a finished task shows its final count instead of the message.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(StatusIcon(t.Status, spinnerFrame))
	b.WriteByte(' ')

	if t.Status == StatusPending {
		b.WriteString(taskDimStyle.Render(t.Name))
	} else {
		b.WriteString(taskNameStyle.Render(t.Name))
	}

	switch {
	case t.Status == StatusRunning && t.Progress > 0:
		fmt.Fprintf(&b, " %s %d%%", prog.ViewAs(t.Progress), int(t.Progress*100))
		if t.Message != "" {
			b.WriteString(" " + messageStyle.Render("("+t.Message+")"))
		}
	case t.Status != StatusComplete && t.Message != "":
		b.WriteString(" " + messageStyle.Render(t.Message))
	}

	if t.Count > 0 && (t.Status == StatusComplete || t.Message == "") {
		b.WriteString(" " + messageStyle.Render(t.countLabel()))
	}
	if t.Error != nil {
		b.WriteString(" " + errorStyle.Render(t.Error.Error()))
	}
	return b.String()
}
