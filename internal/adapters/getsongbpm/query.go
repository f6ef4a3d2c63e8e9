package getsongbpm

import (
	"regexp"
	"strings"
)

// GetSongBPM lists one entry per song, so catalog release decorations
// ("- 2011 Remaster", "(Radio Edit)", "feat. X") only hurt the match.
var (
	// variant matches text that names a release variant rather than the song.
	variant = regexp.MustCompile(`(?i)\b(remaster(ed)?|live|radio edit|edit|(original|extended|club|radio) mix|version|mono|stereo|acoustic|demo|instrumental|deluxe|bonus track|single)\b`)
	// credit matches the start of a guest artist credit.
	credit = regexp.MustCompile(`(?i)^\s*(feat\.?|ft\.?|featuring|with)\s`)

	bracketed   = regexp.MustCompile(`\s*[(\[]([^)\]]*)[)\]]`)
	dashSuffix  = regexp.MustCompile(`\s+-\s+(.+)$`)
	guestSuffix = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s.*$`)
)

// lookupQuery builds the free-text search for a song. The raw title is used
// when cleaning leaves nothing behind.
func lookupQuery(title, artist string) string {
	t := songTitle(title)
	if t == "" {
		t = strings.TrimSpace(title)
	}
	return strings.TrimSpace(t + " " + leadArtist(artist))
}

// songTitle drops variant and guest decorations from a catalog title and
// keeps any other bracketed text, e.g. "(I Can't Get No) Satisfaction".
func songTitle(title string) string {
	s := bracketed.ReplaceAllStringFunc(title, func(seg string) string {
		inner := bracketed.FindStringSubmatch(seg)[1]
		if variant.MatchString(inner) || credit.MatchString(inner) {
			return ""
		}
		return seg
	})
	if m := dashSuffix.FindStringSubmatchIndex(s); m != nil {
		if suffix := s[m[2]:m[3]]; variant.MatchString(suffix) || credit.MatchString(suffix) {
			s = s[:m[0]]
		}
	}
	s = guestSuffix.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// leadArtist drops a trailing guest credit from an artist name.
func leadArtist(artist string) string {
	return strings.Join(strings.Fields(guestSuffix.ReplaceAllString(artist, "")), " ")
}
