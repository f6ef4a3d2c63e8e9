package preview

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
)

// pcm encodes constant-amplitude samples of alternating sign.
func pcm(amplitude int16, n int) []byte {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		_ = binary.Write(&b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

func passthrough(r io.Reader) (io.Reader, error) { return r, nil }

func serve(t *testing.T, status int, body []byte) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestAnalyze(t *testing.T) {
	url := serve(t, http.StatusOK, pcm(16384, 10000))
	a := NewAnalyzer(nil).WithDecoder(passthrough)

	got, err := a.Analyze(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, got.Energy)
	require.NotNil(t, got.Loudness)

	assert.InDelta(t, 0.5, *got.Energy, 1e-9)
	assert.InDelta(t, 20*math.Log10(0.5), *got.Loudness, 1e-9)
	assert.Nil(t, got.Tempo)
}

func TestAnalyzeSilence(t *testing.T) {
	url := serve(t, http.StatusOK, pcm(0, 100))
	a := NewAnalyzer(nil).WithDecoder(passthrough)

	got, err := a.Analyze(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *got.Energy)
	assert.Equal(t, SilenceFloor, *got.Loudness)
}

func TestAnalyzeErrors(t *testing.T) {
	a := NewAnalyzer(nil).WithDecoder(passthrough)

	_, err := a.Analyze(context.Background(), serve(t, http.StatusNotFound, nil))
	assert.Error(t, err)

	_, err = a.Analyze(context.Background(), serve(t, http.StatusOK, nil))
	assert.True(t, errors.Is(err, ErrNoSamples))

	got, err := a.Analyze(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestAnalyzeRejectsInvalidMP3(t *testing.T) {
	a := NewAnalyzer(nil)

	_, err := a.Analyze(context.Background(), serve(t, http.StatusOK, []byte("not an mp3")))
	assert.Error(t, err)
}

func TestAnalyzeRetriesThroughDoer(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(pcm(16384, 100))
	}))
	t.Cleanup(ts.Close)

	doer := backoff.New(ts.Client(), backoff.Config{MaxRetries: 1, BaseDelay: time.Millisecond, Name: "preview"})
	a := NewAnalyzer(doer).WithDecoder(passthrough)

	got, err := a.Analyze(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *got.Energy, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

// chunkReader hands out at most n bytes per Read.
type chunkReader struct {
	r io.Reader
	n int
}

func (c chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.n {
		p = p[:c.n]
	}
	return c.r.Read(p)
}

func TestMeasureRMSOddReads(t *testing.T) {
	samples := pcm(16384, 1001)

	tests := []struct {
		name string
		r    io.Reader
	}{
		{"one byte reads", iotest.OneByteReader(bytes.NewReader(samples))},
		{"three byte reads", chunkReader{r: bytes.NewReader(samples), n: 3}},
		{"odd sized reads", chunkReader{r: bytes.NewReader(samples), n: 1023}},
		{"trailing partial sample", bytes.NewReader(append(append([]byte(nil), samples...), 0x7f))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rms, err := measureRMS(tt.r)
			require.NoError(t, err)
			assert.InDelta(t, 16384.0, rms, 1e-9)
		})
	}
}
