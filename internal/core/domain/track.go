package domain

import "regexp"

// TrackRef identifies a catalog track whose features should be resolved.
type TrackRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artistName"`
	PreviewURL string `json:"previewUrl,omitempty"` // optional, 30s MP3 clip
}

var catalogID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id looks like a catalog artist or track id.
func ValidID(id string) bool {
	return catalogID.MatchString(id)
}
