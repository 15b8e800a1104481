// Package format provides shared text formatting utilities for terminal output.
package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/spiffcs/ghreport/internal/constants"
)

const (
	ellipsis  = "..."
	ansiReset = "\033[0m"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI escape sequences from a string.
func StripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// DisplayWidth returns the visible width of a string in terminal columns.
// ANSI sequences are ignored and an emoji followed by U+FE0F counts as two
// columns.
func DisplayWidth(s string) int {
	runes := []rune(StripAnsi(s))
	width := 0
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) && runes[i+1] == '\uFE0F' {
			width += 2
			i++
			continue
		}
		if runes[i] == '\uFE0F' {
			continue
		}
		width += runewidth.RuneWidth(runes[i])
	}
	return width
}

// TruncateToWidth truncates a string to fit within maxWidth display columns,
// appending "..." when it cuts. ANSI sequences are kept, and a reset code is
// appended if the input carried any. It returns the string and its visible
// width.
func TruncateToWidth(s string, maxWidth int) (string, int) {
	width := DisplayWidth(s)
	if width <= maxWidth {
		return s, width
	}

	target := max(maxWidth-constants.TruncationSuffixWidth, 0)
	matches := ansiRegex.FindAllStringIndex(s, -1)

	var b strings.Builder
	visible, pos, m := 0, 0, 0
	for pos < len(s) && visible < target {
		if m < len(matches) && pos == matches[m][0] {
			b.WriteString(s[matches[m][0]:matches[m][1]])
			pos = matches[m][1]
			m++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[pos:])
		next := pos + size
		if next < len(s) {
			if nr, nsize := utf8.DecodeRuneInString(s[next:]); nr == '\uFE0F' {
				if visible+2 > target {
					break
				}
				b.WriteString(s[pos : next+nsize])
				visible += 2
				pos = next + nsize
				continue
			}
		}
		if r == '\uFE0F' {
			pos += size
			continue
		}

		rw := runewidth.RuneWidth(r)
		if visible+rw > target {
			break
		}
		b.WriteString(s[pos:next])
		visible += rw
		pos = next
	}

	b.WriteString(ellipsis)
	if len(matches) > 0 {
		b.WriteString(ansiReset)
	}
	return b.String(), maxWidth
}

// PadRight pads a string with spaces to reach the target visible width.
func PadRight(s string, visibleWidth, targetWidth int) string {
	if visibleWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-visibleWidth)
}

// OneLine collapses all runs of whitespace, including newlines, into single
// spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Wrap breaks text into lines no wider than width columns, splitting on
// whitespace. Words longer than width get a line of their own.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	line, lineWidth := words[0], DisplayWidth(words[0])
	for _, w := range words[1:] {
		ww := DisplayWidth(w)
		if lineWidth+1+ww > width {
			lines = append(lines, line)
			line, lineWidth = w, ww
			continue
		}
		line += " " + w
		lineWidth += 1 + ww
	}
	return append(lines, line)
}
