package format

import (
	"testing"
)

func TestDetermineIcon(t *testing.T) {
	tests := []struct {
		name     string
		input    IconOptions
		expected IconType
	}{
		{
			name:     "no icon when no conditions met",
			input:    IconOptions{},
			expected: IconNone,
		},
		{
			name:     "hot topic above threshold",
			input:    IconOptions{CommentCount: 11, HotTopicThreshold: 10},
			expected: IconHotTopic,
		},
		{
			name:     "threshold itself is not hot",
			input:    IconOptions{CommentCount: 10, HotTopicThreshold: 10},
			expected: IconNone,
		},
		{
			name:     "zero threshold disables hot topic",
			input:    IconOptions{CommentCount: 100},
			expected: IconNone,
		},
		{
			name:     "mention beats hot topic",
			input:    IconOptions{CommentCount: 50, HotTopicThreshold: 10, Mentioned: true},
			expected: IconMention,
		},
		{
			name:     "breaking beats mention",
			input:    IconOptions{Mentioned: true, Breaking: true},
			expected: IconBreaking,
		},
		{
			name:     "security beats everything",
			input:    IconOptions{CommentCount: 50, HotTopicThreshold: 10, Mentioned: true, Breaking: true, Security: true},
			expected: IconSecurity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineIcon(tt.input)
			if got != tt.expected {
				t.Errorf("DetermineIcon() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIconWidth(t *testing.T) {
	for _, icon := range []IconType{IconHotTopic, IconMention, IconSecurity, IconBreaking} {
		if w := DisplayWidth(icon.String()); w+1 != IconWidth {
			t.Errorf("icon %q has width %d, want %d", icon.String(), w, IconWidth-1)
		}
	}
	if IconNone.String() != "" {
		t.Errorf("IconNone.String() = %q, want empty", IconNone.String())
	}
}
