package terminal

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"golang.org/x/text/width"
)

const fallbackWidth = 80

// Width returns the current terminal width, or a fallback when stdout
// is not attached to a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

// DisplayWidth returns the number of terminal cells s occupies. ANSI
// escape sequences count as zero, east-asian wide runes as two.
func DisplayWidth(s string) int {
	cells := 0
	inEscape := false
	for _, r := range s {
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if r == '\x1b' {
			inEscape = true
			continue
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			cells += 2
		default:
			cells++
		}
	}
	return cells
}

// Wrap word-wraps s to at most limit display cells per line. Existing
// line breaks are kept as hard breaks. A limit <= 0 only splits on the
// existing breaks.
func Wrap(s string, limit int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if limit <= 0 {
			out = append(out, line)
			continue
		}
		out = append(out, wrapLine(line, limit)...)
	}
	return out
}

func wrapLine(line string, limit int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{line}
	}
	var out []string
	current := ""
	for _, word := range words {
		for DisplayWidth(word) > limit {
			// A single word wider than the limit is broken hard.
			if current != "" {
				out = append(out, current)
				current = ""
			}
			head, tail := splitAtWidth(word, limit)
			out = append(out, head)
			word = tail
		}
		switch {
		case current == "":
			current = word
		case DisplayWidth(current)+1+DisplayWidth(word) <= limit:
			current += " " + word
		default:
			out = append(out, current)
			current = word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func splitAtWidth(s string, limit int) (string, string) {
	cells := 0
	for i, r := range s {
		w := 1
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w = 2
		}
		if cells+w > limit {
			return s[:i], s[i:]
		}
		cells += w
	}
	return s, ""
}

// Pad extends s with spaces to exactly w display cells, truncating is
// not attempted.
func Pad(s string, w int) string {
	gap := w - DisplayWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// MergeColumns zips two line columns side by side. The left column is
// padded to leftWidth cells; the shorter column is padded with empty
// lines.
func MergeColumns(left, right []string, leftWidth, gap int) []string {
	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	spacer := strings.Repeat(" ", gap)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		out = append(out, Pad(l, leftWidth)+spacer+r)
	}
	return out
}

// Bold renders s in bold.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

var colorAttrs = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

var brightAttrs = map[string]color.Attribute{
	"black":   color.FgHiBlack,
	"red":     color.FgHiRed,
	"green":   color.FgHiGreen,
	"yellow":  color.FgHiYellow,
	"blue":    color.FgHiBlue,
	"magenta": color.FgHiMagenta,
	"cyan":    color.FgHiCyan,
	"white":   color.FgHiWhite,
}

// Colored renders s in the named color. Names are the eight base
// colors plus "light " variants. With boldForLight set, light colors
// are rendered as the bold base color instead of the bright one,
// which reads better on 8-color terminals. Unknown names return s
// unchanged.
func Colored(s, name string, boldForLight bool) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return s
	}
	base, light := strings.CutPrefix(name, "light ")
	if !light {
		attr, ok := colorAttrs[base]
		if !ok {
			return s
		}
		return color.New(attr).Sprint(s)
	}
	if boldForLight {
		attr, ok := colorAttrs[base]
		if !ok {
			return s
		}
		return color.New(attr, color.Bold).Sprint(s)
	}
	attr, ok := brightAttrs[base]
	if !ok {
		return s
	}
	return color.New(attr).Sprint(s)
}

// Inverse renders s with reversed foreground/background, used to mark
// the current day in the month pane.
func Inverse(s string) string {
	return color.New(color.ReverseVideo).Sprint(s)
}
