package getsongbpm

import "testing"

func TestSongTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dash remaster suffix", "Don't Stop Me Now - Remastered 2011", "Don't Stop Me Now"},
		{"dash year remaster", "Blinding Lights - 2020 Remaster", "Blinding Lights"},
		{"dash live suffix", "Song Title - Live at Wembley", "Song Title"},
		{"bracketed radio edit", "Bad Guy [Radio Edit]", "Bad Guy"},
		{"bracketed guest", "Levitating (feat. DaBaby)", "Levitating"},
		{"bare guest suffix", "Hey Ya! feat. Someone", "Hey Ya!"},
		{"keeps song-name brackets", "(I Can't Get No) Satisfaction", "(I Can't Get No) Satisfaction"},
		{"keeps remix suffix", "Strobe - Remix", "Strobe - Remix"},
		{"keeps other dash suffix", "Tom Sawyer - Part Two", "Tom Sawyer - Part Two"},
		{"with inside a title", "Stay With Me", "Stay With Me"},
		{"collapses whitespace", "  Song   (Mono)  ", "Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := songTitle(tt.input); got != tt.want {
				t.Fatalf("songTitle(%q): got %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookupQuery(t *testing.T) {
	tests := []struct {
		title, artist, want string
	}{
		{"Levitating (feat. DaBaby)", "Dua Lipa", "Levitating Dua Lipa"},
		{"This Is What You Came For", "Calvin Harris feat. Rihanna", "This Is What You Came For Calvin Harris"},
		{"Live", "Band", "Live Band"},
		{"(Live)", "Band", "(Live) Band"},
		{"Song", "", "Song"},
	}

	for _, tt := range tests {
		if got := lookupQuery(tt.title, tt.artist); got != tt.want {
			t.Errorf("lookupQuery(%q, %q): got %q, want %q", tt.title, tt.artist, got, tt.want)
		}
	}
}
