package spotify

type spotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// spotifyTrack represents a track object from the Spotify API.
type spotifyTrack struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Artists    []spotifyArtistRef `json:"artists"`
	PreviewURL *string            `json:"preview_url"`
	DurationMs int                `json:"duration_ms"`
	Popularity int                `json:"popularity"`
	Album      struct {
		Name   string         `json:"name"`
		Images []spotifyImage `json:"images"`
	} `json:"album"`
}

// spotifyArtist represents a full artist object from the Spotify API.
type spotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Popularity int            `json:"popularity"`
	Images     []spotifyImage `json:"images"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
}

type topTracksResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}
