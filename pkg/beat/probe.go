package beat

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// Track is an audio file that can be played as a beat.
type Track struct {
	Name   string
	Source string
	Format string
	// Duration in seconds. +Inf for streams whose length can't be known.
	Duration float64
}

// Formats supported by Probe.
var Formats = []string{".mp3", ".wav"}

// Supported reports whether the file extension can be probed.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range Formats {
		if ext == f {
			return true
		}
	}
	return false
}

// Probe reads the duration of a local file or an http(s) URL.
func Probe(ctx context.Context, u string) (*Track, error) {
	ext := strings.ToLower(filepath.Ext(u))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	t := &Track{
		Name:   filepath.Base(u),
		Source: u,
		Format: strings.TrimPrefix(ext, "."),
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		if ext != ".mp3" {
			return nil, fmt.Errorf("beat: unsupported stream format %q", ext)
		}
		d, err := probeStream(ctx, u)
		if err != nil {
			return nil, err
		}
		t.Duration = d
		return t, nil
	}

	f, err := os.Open(u)
	if err != nil {
		return nil, fmt.Errorf("beat: couldn't open file: %w", err)
	}
	defer f.Close()
	switch ext {
	case ".mp3":
		t.Duration, err = mp3Duration(f)
	case ".wav":
		t.Duration, err = wavDuration(f)
	default:
		err = fmt.Errorf("beat: unsupported extension %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func probeStream(ctx context.Context, u string) (float64, error) {
	client := &http.Client{
		Timeout: 2 * time.Minute,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("beat: couldn't create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("beat: couldn't open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("beat: couldn't open stream: status %s", resp.Status)
	}
	return mp3Duration(resp.Body)
}

// mp3Duration returns +Inf when the reader isn't seekable, the decoder can't
// know the total length in that case.
func mp3Duration(r io.Reader) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("beat: couldn't decode mp3: %w", err)
	}
	length := decoder.Length()
	if length < 0 {
		return math.Inf(1), nil
	}
	// Decoded output is always 16-bit stereo
	frames := float64(length) / 4
	return frames / float64(decoder.SampleRate()), nil
}

func wavDuration(r io.ReadSeeker) (float64, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("beat: invalid wav file")
	}
	d, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("beat: couldn't read wav duration: %w", err)
	}
	return d.Seconds(), nil
}
