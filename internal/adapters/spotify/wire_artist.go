package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// TopTracks returns the artist's top tracks in catalog order (at most 10,
// Spotify's limit for this endpoint).
func (c *Client) TopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error) {
	topTracksURL := fmt.Sprintf("%s/artists/%s/top-tracks?market=%s", c.baseURL, url.PathEscape(artistID), url.QueryEscape(c.market))

	resp, err := c.get(ctx, topTracksURL)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "top tracks"); err != nil {
		return nil, err
	}

	var body topTracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks decode error: %w", err)
	}

	tracks := make([]domain.TrackRef, 0, len(body.Tracks))
	for _, st := range body.Tracks {
		if st.ID == "" {
			continue
		}
		tracks = append(tracks, mapTrackToDomain(st))
	}
	log.Printf("DEBUG spotify adapter: %d top tracks for artist %s", len(tracks), artistID) // #nosec G706 -- artist id is validated by the caller

	return tracks, nil
}

// Artist returns the artist's metadata.
func (c *Client) Artist(ctx context.Context, artistID string) (domain.Artist, error) {
	artistURL := fmt.Sprintf("%s/artists/%s", c.baseURL, url.PathEscape(artistID))

	resp, err := c.get(ctx, artistURL)
	if err != nil {
		return domain.Artist{}, fmt.Errorf("spotify adapter: artist request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "artist"); err != nil {
		return domain.Artist{}, err
	}

	var sa spotifyArtist
	if err := json.NewDecoder(resp.Body).Decode(&sa); err != nil {
		return domain.Artist{}, fmt.Errorf("spotify adapter: artist decode error: %w", err)
	}

	return mapArtistToDomain(sa), nil
}

func statusError(resp *http.Response, what string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("spotify adapter: %s status %d: %w", what, resp.StatusCode, domain.ErrNotFound)
	default:
		return fmt.Errorf("spotify adapter: %s status %d", what, resp.StatusCode)
	}
}
