package cmd

import (
	"fmt"
	"strings"

	"github.com/spiffcs/ghreport/internal/tui"
)

// tuiFlag is a pflag.Value for --tui. A bare --tui forces the display on,
// --tui=false forces it off and --tui=auto (the default) leaves the choice
// to terminal detection.
type tuiFlag struct {
	target **bool
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{target: &opts.TUI}
}

func (f *tuiFlag) String() string {
	switch v := *f.target; {
	case v == nil:
		return "auto"
	case *v:
		return "true"
	default:
		return "false"
	}
}

func (f *tuiFlag) Set(s string) error {
	var v bool
	switch strings.ToLower(s) {
	case "auto":
		*f.target = nil
		return nil
	case "true", "1", "yes", "on":
		v = true
	case "false", "0", "no", "off":
		v = false
	default:
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	*f.target = &v
	return nil
}

func (f *tuiFlag) Type() string { return "bool" }

// IsBoolFlag lets --tui be given without a value.
func (f *tuiFlag) IsBoolFlag() bool { return true }

// shouldUseTUI reports whether to render progress with the TUI. Verbose
// runs always log instead so their output stays readable.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
