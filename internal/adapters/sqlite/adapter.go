// Package sqlite provides a SQLite-backed implementation of the profile repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

// Adapter implements the profile repository port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.ProfileRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// :memory: databases are per-connection.
	if strings.Contains(storagePath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// GetProfile loads the cached aggregate for a catalog artist id.
func (a *Adapter) GetProfile(ctx context.Context, artistID string) (domain.ArtistProfile, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, artist_id, name, genres, popularity, followers, image_url, aggregate, updated_at
		FROM artist_profiles
		WHERE artist_id = ?
	`, artistID)

	var (
		p         domain.ArtistProfile
		genres    string
		aggregate string
		imageURL  sql.NullString
		updatedAt string
	)
	if err := row.Scan(
		&p.ID,
		&p.Artist.ID,
		&p.Artist.Name,
		&genres,
		&p.Artist.Popularity,
		&p.Artist.Followers,
		&imageURL,
		&aggregate,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ArtistProfile{}, domain.ErrNotFound
		}
		return domain.ArtistProfile{}, fmt.Errorf("failed to load artist profile: %w", err)
	}

	if imageURL.Valid {
		p.Artist.ImageURL = imageURL.String
	}
	if err := json.Unmarshal([]byte(genres), &p.Artist.Genres); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to decode genres for %s: %w", artistID, err)
	}
	if err := json.Unmarshal([]byte(aggregate), &p.Aggregate); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to decode aggregate for %s: %w", artistID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to parse updated_at for %s: %w", artistID, err)
	}
	p.UpdatedAt = ts

	return p, nil
}

// SaveProfile upserts on the catalog artist id. A profile without a row id
// gets a fresh one; an existing row keeps the id it was created with.
func (a *Adapter) SaveProfile(ctx context.Context, p domain.ArtistProfile) (domain.ArtistProfile, error) {
	if p.Artist.ID == "" {
		return domain.ArtistProfile{}, errors.New("sqlite: artist id is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	genres := p.Artist.Genres
	if genres == nil {
		genres = []string{}
	}
	genresJSON, err := json.Marshal(genres)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to encode genres: %w", err)
	}
	aggregateJSON, err := json.Marshal(p.Aggregate)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to encode aggregate: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO artist_profiles (
			id, artist_id, name, genres, popularity, followers, image_url, aggregate, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(artist_id) DO UPDATE SET
			name=excluded.name,
			genres=excluded.genres,
			popularity=excluded.popularity,
			followers=excluded.followers,
			image_url=excluded.image_url,
			aggregate=excluded.aggregate,
			updated_at=excluded.updated_at;
	`
	if _, err := tx.ExecContext(
		ctx,
		query,
		p.ID,
		p.Artist.ID,
		p.Artist.Name,
		string(genresJSON),
		p.Artist.Popularity,
		p.Artist.Followers,
		p.Artist.ImageURL,
		string(aggregateJSON),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to save artist profile %s: %w", p.Artist.ID, err)
	}

	// The row id survives upserts, so read back what is stored.
	if err := tx.QueryRowContext(ctx, "SELECT id FROM artist_profiles WHERE artist_id = ?", p.Artist.ID).Scan(&p.ID); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to read artist profile id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("transaction commit failed: %w", err)
	}

	return p, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS artist_profiles (
		id TEXT PRIMARY KEY,
		artist_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		genres TEXT NOT NULL DEFAULT '[]',
		popularity INTEGER NOT NULL DEFAULT 0,
		followers INTEGER NOT NULL DEFAULT 0,
		image_url TEXT,
		aggregate TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	return nil
}
