package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when no record exists.
var ErrNotFound = errors.New("domain: not found")

// Artist is catalog metadata for an artist.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// ArtistProfile is a persisted artist aggregate.
type ArtistProfile struct {
	ID        string    `json:"id"`
	Artist    Artist    `json:"artist"`
	Aggregate Aggregate `json:"aggregate"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stale reports whether the profile is older than ttl at now.
func (p ArtistProfile) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.UpdatedAt) > ttl
}
