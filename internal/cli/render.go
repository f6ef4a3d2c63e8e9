package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/services"
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// report is the printable form of a resolved profile.
type report struct {
	ArtistID     string               `json:"artistId" yaml:"artist_id"`
	Artist       string               `json:"artist" yaml:"artist"`
	Genres       []string             `json:"genres,omitempty" yaml:"genres,omitempty"`
	Source       domain.Source        `json:"source" yaml:"source"`
	Contributors int                  `json:"contributors" yaml:"contributors"`
	Requested    int                  `json:"requested" yaml:"requested"`
	Cache        services.CacheStatus `json:"cache" yaml:"cache"`
	RunID        string               `json:"runId,omitempty" yaml:"run_id,omitempty"`
	UpdatedAt    time.Time            `json:"updatedAt" yaml:"updated_at"`
	Features     domain.AudioFeatures `json:"features" yaml:"features"`
}

func newReport(p domain.ArtistProfile, status services.CacheStatus) report {
	return report{
		ArtistID:     p.Artist.ID,
		Artist:       p.Artist.Name,
		Genres:       p.Artist.Genres,
		Source:       p.Aggregate.Source,
		Contributors: p.Aggregate.Contributors,
		Requested:    p.Aggregate.Requested,
		Cache:        status,
		RunID:        p.Aggregate.RunID,
		UpdatedAt:    p.UpdatedAt,
		Features:     p.Aggregate.Features,
	}
}

var renderers = map[string]func(io.Writer, report) error{
	"table": renderTable,
	"json":  renderJSON,
	"yaml":  renderYAML,
}

func renderJSON(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func renderYAML(w io.Writer, r report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func renderTable(w io.Writer, r report) error {
	f := r.Features
	rows := [][]string{
		{"Acousticness", fraction(f.Acousticness)},
		{"Danceability", fraction(f.Danceability)},
		{"Energy", fraction(f.Energy)},
		{"Instrumentalness", fraction(f.Instrumentalness)},
		{"Liveness", fraction(f.Liveness)},
		{"Speechiness", fraction(f.Speechiness)},
		{"Valence", fraction(f.Valence)},
		{"Tempo", fmt.Sprintf("%.1f BPM", f.Tempo)},
		{"Loudness", fmt.Sprintf("%.1f dB", f.Loudness)},
		{"Key", keyName(f.Key, f.Mode)},
		{"Time signature", fmt.Sprintf("%d/4", f.TimeSignature)},
	}
	if f.Popularity != nil {
		rows = append(rows, []string{"Popularity", fmt.Sprintf("%.0f", *f.Popularity)})
	}
	if f.DurationMs != nil {
		rows = append(rows, []string{"Duration", (time.Duration(*f.DurationMs) * time.Millisecond).Round(time.Second).String()})
	}

	fmt.Fprintf(w, "%s (%s)\n", r.Artist, r.ArtistID)
	if len(r.Genres) > 0 {
		fmt.Fprintf(w, "Genres: %s\n", strings.Join(r.Genres, ", "))
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Feature", "Value"})
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	fmt.Fprintf(w, "Based on %d/%d tracks, source %s, cache %s\n", r.Contributors, r.Requested, r.Source, r.Cache)
	return nil
}

func fraction(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func keyName(key, mode int) string {
	if key < 0 || key > 11 {
		return "unknown"
	}
	if mode == 0 {
		return pitchNames[key] + " minor"
	}
	return pitchNames[key] + " major"
}
