package format

// IconType represents the type of icon to display for a report item.
type IconType int

const (
	// IconNone indicates no icon should be displayed.
	IconNone IconType = iota
	// IconHotTopic marks a busy discussion.
	IconHotTopic
	// IconMention marks an item that mentions the reader.
	IconMention
	// IconSecurity marks an item matched by the security watch rule.
	IconSecurity
	// IconBreaking marks an item matched by the breaking change watch rule.
	IconBreaking
)

// IconOptions contains the fields needed to determine which icon to display.
type IconOptions struct {
	CommentCount      int
	HotTopicThreshold int
	Mentioned         bool
	Security          bool
	Breaking          bool
}

// DetermineIcon decides which icon (if any) should be displayed for an item.
// Security outranks breaking changes, which outrank mentions, which outrank
// hot topics.
func DetermineIcon(opts IconOptions) IconType {
	switch {
	case opts.Security:
		return IconSecurity
	case opts.Breaking:
		return IconBreaking
	case opts.Mentioned:
		return IconMention
	case opts.HotTopicThreshold > 0 && opts.CommentCount > opts.HotTopicThreshold:
		return IconHotTopic
	}
	return IconNone
}

// String returns the emoji for the icon, or "" for IconNone.
func (i IconType) String() string {
	switch i {
	case IconHotTopic:
		return HotTopicIcon
	case IconMention:
		return MentionIcon
	case IconSecurity:
		return SecurityIcon
	case IconBreaking:
		return BreakingIcon
	}
	return ""
}

// Icon strings for display (renderers can apply their own styling)
const (
	HotTopicIcon = "\U0001F525" // 🔥
	MentionIcon  = "\U0001F4E3" // 📣
	SecurityIcon = "\U0001F512" // 🔒

	// BreakingIcon uses U+26A0 + U+FE0F to force emoji presentation for a
	// consistent 2-column width.
	BreakingIcon = "\u26A0\uFE0F" // ⚠️

	// IconWidth is the display width reserved for the icon column (emoji=2 + space=1).
	IconWidth = 3
)

// HotTopicThreshold is the comment count above which an item is a hot topic.
const HotTopicThreshold = 10
