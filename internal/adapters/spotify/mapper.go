package spotify

import (
	"strings"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a track reference.
func mapTrackToDomain(st spotifyTrack) domain.TrackRef {
	// Flatten Artists (List -> String)
	var artistNames []string
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	ref := domain.TrackRef{
		ID:         st.ID,
		Name:       st.Name,
		ArtistName: strings.Join(artistNames, ", "),
	}
	if st.PreviewURL != nil {
		ref.PreviewURL = *st.PreviewURL
	}
	return ref
}

func mapArtistToDomain(sa spotifyArtist) domain.Artist {
	imageURL := ""
	if len(sa.Images) > 0 {
		imageURL = sa.Images[0].URL
	}
	return domain.Artist{
		ID:         sa.ID,
		Name:       sa.Name,
		Genres:     sa.Genres,
		Popularity: sa.Popularity,
		Followers:  sa.Followers.Total,
		ImageURL:   imageURL,
	}
}
