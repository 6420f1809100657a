// Package presentation holds the display attributes shared by every closed
// status enumeration. Each enum declares a name table and a badge table of
// the same length as its value set; a mismatch fails to compile.
package presentation

import "fmt"

// Tone is the colour family a badge is drawn in.
type Tone uint8

const (
	ToneNeutral Tone = iota
	ToneInfo
	ToneSuccess
	ToneWarning
	ToneDanger
	toneCount
)

var toneNames = [...]string{"neutral", "info", "success", "warning", "danger"}

var _ = [1]struct{}{}[len(toneNames)-int(toneCount)]

func (t Tone) String() string {
	return Name(toneNames[:], t)
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Badge is how a status value is shown to the user.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// Name returns names[v], or "unknown" for a value outside the table.
func Name[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

// Parse finds s in names. kind names the enumeration in the error.
func Parse[T ~uint8](kind string, names []string, s string) (T, error) {
	for i, n := range names {
		if n == s {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// BadgeOf returns badges[v], or a neutral badge labelled with the raw value
// for anything outside the table.
func BadgeOf[T ~uint8](badges []Badge, v T) Badge {
	if int(v) < len(badges) {
		return badges[v]
	}
	return Badge{Label: fmt.Sprintf("%d", v), Tone: ToneNeutral}
}

// All lists every value of an enumeration with n members.
func All[T ~uint8](n T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}
