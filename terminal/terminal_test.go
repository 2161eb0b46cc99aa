package terminal

import (
	"reflect"
	"testing"

	"github.com/fatih/color"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"日本", 4},
		{"a日b", 4},
		{"\x1b[1mhi\x1b[0m", 2},
	}
	for _, tt := range tests {
		if got := DisplayWidth(tt.in); got != tt.want {
			t.Errorf("DisplayWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{
			name:  "fits",
			in:    "short line",
			limit: 20,
			want:  []string{"short line"},
		},
		{
			name:  "wraps at word boundary",
			in:    "one two three four",
			limit: 9,
			want:  []string{"one two", "three", "four"},
		},
		{
			name:  "keeps existing breaks",
			in:    "first\nsecond part",
			limit: 20,
			want:  []string{"first", "second part"},
		},
		{
			name:  "breaks oversized words",
			in:    "abcdefghij",
			limit: 4,
			want:  []string{"abcd", "efgh", "ij"},
		},
		{
			name:  "no limit only splits breaks",
			in:    "a\nb",
			limit: 0,
			want:  []string{"a", "b"},
		},
		{
			name:  "empty line survives",
			in:    "",
			limit: 10,
			want:  []string{""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.in, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestMergeColumns(t *testing.T) {
	left := []string{"cal1", "cal2"}
	right := []string{"ev1", "ev2", "ev3"}
	got := MergeColumns(left, right, 6, 2)
	want := []string{
		"cal1    ev1",
		"cal2    ev2",
		"        ev3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeColumns() = %q, want %q", got, want)
	}
}

func TestColored(t *testing.T) {
	// Color output is disabled so the text passes through unchanged;
	// this pins the name handling, not the escape codes.
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	tests := []struct {
		name      string
		colorName string
	}{
		{"base color", "red"},
		{"light color", "light red"},
		{"light without bold", "light green"},
		{"unknown color", "chartreuse"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Colored("text", tt.colorName, true); got != "text" {
				t.Errorf("Colored() = %q, want %q", got, "text")
			}
		})
	}

	if got := Bold("label"); got != "label" {
		t.Errorf("Bold() = %q, want %q", got, "label")
	}
}
