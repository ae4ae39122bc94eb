package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log"
	"math"
	"strings"
	"sync/atomic"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

const (
	DefaultScale     = 2
	DefaultWatermark = "RapGen"
	DefaultFilename  = "lyrics.png"

	watermarkInset = 12
	watermarkSize  = 14
)

// Watermark fill: white at 65% opacity drawn with a 60% global alpha.
var watermarkColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: uint8(math.Round(255 * 0.65 * 0.6))}

// Downloader hands a produced file over to the user.
type Downloader interface {
	Download(ctx context.Context, name, contentType string, data []byte) error
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, name, contentType string, data []byte) error

func (f DownloaderFunc) Download(ctx context.Context, name, contentType string, data []byte) error {
	return f(ctx, name, contentType, data)
}

// Artifact is an encoded export ready to be downloaded.
type Artifact struct {
	Data        []byte
	Filename    string
	ContentType string
}

type Config struct {
	Debug bool
	Scale float64
	// Alert reports failures to the user.
	Alert func(msg string)
}

// Compositor turns the lyric card into a watermarked PNG download. A single
// export runs at a time per compositor; calls made while one is in flight
// are ignored.
type Compositor struct {
	cfg        *Config
	renderer   Renderer
	downloader Downloader
	busy       atomic.Bool
}

func New(cfg *Config, renderer Renderer, downloader Downloader) *Compositor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Compositor{
		cfg:        cfg,
		renderer:   renderer,
		downloader: downloader,
	}
}

// Exporting reports whether an export is in flight.
func (c *Compositor) Exporting() bool {
	return c.busy.Load()
}

// Export renders the card off-screen and downloads it. It returns nil without
// doing anything when text is blank or another export is running.
func (c *Compositor) Export(ctx context.Context, card *Card, text, watermark, filename string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !c.busy.CompareAndSwap(false, true) {
		if c.cfg.Debug {
			log.Println("export: already in progress, ignoring")
		}
		return nil
	}
	defer c.busy.Store(false)

	artifact, err := c.compose(ctx, card, watermark, filename)
	if err != nil {
		c.alert("Export failed")
		return err
	}
	if err := c.downloader.Download(ctx, artifact.Filename, artifact.ContentType, artifact.Data); err != nil {
		c.alert("Export failed")
		return fmt.Errorf("export: couldn't download %s: %w", artifact.Filename, err)
	}
	if c.cfg.Debug {
		log.Printf("export: %s (%d bytes)\n", artifact.Filename, len(artifact.Data))
	}
	return nil
}

func (c *Compositor) compose(ctx context.Context, card *Card, watermark, filename string) (*Artifact, error) {
	if err := c.renderer.Ready(ctx); err != nil {
		return nil, fmt.Errorf("export: fonts not ready: %w", err)
	}

	detached := card.Detach()
	scale := c.cfg.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	raster, err := c.renderer.Render(ctx, detached, scale)
	if err != nil {
		return nil, fmt.Errorf("export: couldn't render card: %w", err)
	}
	defer raster.Release()

	if watermark == "" {
		watermark = DefaultWatermark
	}
	if raster.Image() == nil {
		return nil, fmt.Errorf("export: nothing rendered: %w", lyrics.ErrExport)
	}
	inset := int(math.Round(watermarkInset * scale))
	if err := raster.DrawText(watermark, watermarkSize*scale, inset, watermarkColor); err != nil {
		// The card is still usable without a watermark
		log.Printf("export: couldn't draw watermark: %v\n", err)
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, raster.Image()); err != nil {
		return nil, fmt.Errorf("export: couldn't encode png: %w: %v", lyrics.ErrExport, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("export: empty png: %w", lyrics.ErrExport)
	}

	if filename == "" {
		filename = DefaultFilename
	}
	return &Artifact{
		Data:        buf.Bytes(),
		Filename:    filename,
		ContentType: "image/png",
	}, nil
}

func (c *Compositor) alert(msg string) {
	if c.cfg.Alert != nil {
		c.cfg.Alert(msg)
		return
	}
	log.Printf("export: %s\n", msg)
}
