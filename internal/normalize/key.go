package normalize

import (
	"strings"
	"unicode"
)

// KeyName is a parsed free-form key label such as "F#m" or "Bb major".
type KeyName struct {
	Key     int
	Mode    int
	HasMode bool
}

// ParseKeyName reads a note name with an optional mode suffix. It returns
// false when no note name can be found.
func ParseKeyName(label string) (KeyName, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return KeyName{}, false
	}

	runes := []rune(s)
	letter := unicode.ToUpper(runes[0])
	if letter < 'A' || letter > 'G' {
		return KeyName{}, false
	}
	note := string(letter)
	rest := runes[1:]
	if len(rest) > 0 {
		switch rest[0] {
		case '#', '♯':
			note += "#"
			rest = rest[1:]
		case 'b', '♭':
			// "Bb" is B flat, but "Bbm" is still B flat minor.
			note += "b"
			rest = rest[1:]
		}
	}

	pc, ok := PitchClass(note)
	if !ok {
		return KeyName{}, false
	}
	parsed := KeyName{Key: pc}

	suffix := strings.ToLower(strings.TrimSpace(string(rest)))
	switch {
	case strings.HasPrefix(suffix, "maj"):
		parsed.Mode, parsed.HasMode = 1, true
	case strings.HasPrefix(suffix, "min"), suffix == "m", strings.HasPrefix(suffix, "m "):
		parsed.Mode, parsed.HasMode = 0, true
	}

	return parsed, true
}
