// Package preview derives loudness and energy from a track's 30 second MP3
// preview.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"gonum.org/v1/gonum/floats"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

// SilenceFloor is reported as loudness for an all-zero preview.
const SilenceFloor = -60.0

// ErrNoSamples is returned when a preview decodes to nothing.
var ErrNoSamples = errors.New("preview contains no samples")

// Decoder turns an encoded stream into 16-bit little-endian PCM.
type Decoder func(io.Reader) (io.Reader, error)

// Analyzer downloads previews and measures them.
type Analyzer struct {
	http   backoff.Doer
	decode Decoder
}

var _ ports.PreviewAnalyzer = (*Analyzer)(nil)

// NewAnalyzer constructs an analyzer with an MP3 decoder. A nil doer gets a
// default backoff client.
func NewAnalyzer(doer backoff.Doer) *Analyzer {
	if doer == nil {
		doer = backoff.New(&http.Client{Timeout: 15 * time.Second}, backoff.DefaultConfig("preview"))
	}
	return &Analyzer{http: doer, decode: decodeMP3}
}

// WithDecoder swaps the audio decoder.
func (a *Analyzer) WithDecoder(d Decoder) *Analyzer {
	a.decode = d
	return a
}

func decodeMP3(r io.Reader) (io.Reader, error) {
	return mp3.NewDecoder(r)
}

// Analyze fetches previewURL and returns its energy and loudness.
func (a *Analyzer) Analyze(ctx context.Context, previewURL string) (domain.PartialFeatures, error) {
	if previewURL == "" {
		return domain.PartialFeatures{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("preview adapter: %w", err)
	}

	// #nosec G107 -- URL is a preview URL from the catalog response
	resp, err := a.http.Do(req)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("preview adapter: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PartialFeatures{}, fmt.Errorf("preview adapter: fetch status %d", resp.StatusCode)
	}

	pcm, err := a.decode(resp.Body)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("preview adapter: decode failed: %w", err)
	}

	rms, err := measureRMS(pcm)
	if err != nil {
		return domain.PartialFeatures{}, fmt.Errorf("preview adapter: %w", err)
	}

	energy := domain.Clamp01(rms / 32768.0)
	loudness := SilenceFloor
	if rms > 0 {
		loudness = math.Max(SilenceFloor, 20*math.Log10(rms/32768.0))
	}
	return domain.PartialFeatures{Energy: &energy, Loudness: &loudness}, nil
}

// measureRMS reads 16-bit little-endian samples until EOF. A read that ends
// mid-sample keeps the odd byte for the next one; a lone byte at EOF is
// ignored.
func measureRMS(pcm io.Reader) (float64, error) {
	buf := make([]byte, 4096)
	samples := make([]float64, 0, len(buf)/2)
	var sumSquares float64
	var count, carry int

	for {
		n, err := pcm.Read(buf[carry:])
		n += carry
		whole := n &^ 1
		if whole > 0 {
			samples = samples[:0]
			for i := 0; i < whole; i += 2 {
				sample := int16(buf[i]) | int16(buf[i+1])<<8
				samples = append(samples, float64(sample))
			}
			sumSquares += floats.Dot(samples, samples)
			count += len(samples)
		}
		carry = n - whole
		if carry == 1 {
			buf[0] = buf[whole]
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read failed: %w", err)
		}
	}

	if count == 0 {
		return 0, ErrNoSamples
	}
	return math.Sqrt(sumSquares / float64(count)), nil
}
