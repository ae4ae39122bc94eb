package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/igolaizola/rapgen/pkg/lyrics"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Renderer rasterizes cards. Ready blocks until the resources needed to draw
// text are available.
type Renderer interface {
	Ready(ctx context.Context) error
	Render(ctx context.Context, card *Card, scale float64) (Raster, error)
}

// Raster is a rendered surface.
type Raster interface {
	// Image returns the rendered image, nil if nothing was drawn.
	Image() image.Image
	// DrawText draws text anchored at the bottom-right corner, inset by the
	// given amount of pixels.
	DrawText(text string, size float64, inset int, c color.Color) error
	Release()
}

// FontRenderer renders cards with TrueType/OpenType fonts. The Go fonts are
// used when no font files are given.
type FontRenderer struct {
	regularPath string
	boldPath    string

	once    sync.Once
	loaded  chan struct{}
	err     error
	regular *opentype.Font
	bold    *opentype.Font
}

func NewFontRenderer(regular, bold string) *FontRenderer {
	return &FontRenderer{
		regularPath: regular,
		boldPath:    bold,
		loaded:      make(chan struct{}),
	}
}

func (r *FontRenderer) Ready(ctx context.Context) error {
	r.once.Do(func() {
		go func() {
			defer close(r.loaded)
			r.regular, r.err = parseFont(r.regularPath, goregular.TTF)
			if r.err != nil {
				return
			}
			r.bold, r.err = parseFont(r.boldPath, gobold.TTF)
		}()
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.loaded:
		return r.err
	}
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	b := fallback
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("export: couldn't read font %s: %w", path, err)
		}
	}
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("export: couldn't parse font: %w", err)
	}
	return f, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (r *FontRenderer) Render(ctx context.Context, card *Card, scale float64) (Raster, error) {
	if err := r.Ready(ctx); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	out := &raster{font: r.regular}
	ok := false
	defer func() {
		if !ok {
			out.Release()
		}
	}()

	size := card.FontSize * scale
	body, err := out.face(r.regular, size)
	if err != nil {
		return nil, err
	}
	header, err := out.face(r.bold, size*1.4)
	if err != nil {
		return nil, err
	}
	footer, err := out.face(r.regular, size*0.8)
	if err != nil {
		return nil, err
	}

	width := int(math.Round(float64(card.Width) * scale))
	pad := int(math.Round(float64(card.Padding) * scale))
	lineHeight := int(math.Ceil(size * card.LineHeight))
	lines := wrap(body, card.body(), width-2*pad)

	headerHeight := header.Metrics().Height.Ceil()
	footerHeight := footer.Metrics().Height.Ceil()
	gap := pad / 2
	height := pad + headerHeight + gap + len(lines)*lineHeight + gap + footerHeight + pad
	if card.MaxHeight > 0 {
		if limit := int(math.Round(float64(card.MaxHeight) * scale)); height > limit {
			height = limit
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("export: invalid card size %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(card.Background), image.Point{}, draw.Src)

	y := pad + header.Metrics().Ascent.Ceil()
	drawString(img, header, card.Accent, pad, y, card.Header)
	y += header.Metrics().Descent.Ceil() + gap

	m := body.Metrics()
	offset := (lineHeight + m.Ascent.Ceil() - m.Descent.Ceil()) / 2
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		drawString(img, body, card.Foreground, pad, y+i*lineHeight+offset, line)
	}
	y += len(lines)*lineHeight + gap + footer.Metrics().Ascent.Ceil()
	drawString(img, footer, card.Muted, pad, y, card.Footer)

	out.img = img
	ok = true
	return out, nil
}

func drawString(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// wrap splits text in lines that fit in the given width. Blank lines are
// dropped, the card shows the same lines the synchronizer counts.
func wrap(face font.Face, text string, width int) []string {
	var out []string
	for _, line := range lyrics.SplitLines(text) {
		words := strings.Fields(line)
		var curr string
		for _, w := range words {
			candidate := w
			if curr != "" {
				candidate = curr + " " + w
			}
			if font.MeasureString(face, candidate).Ceil() <= width {
				curr = candidate
				continue
			}
			if curr != "" {
				out = append(out, curr)
			}
			curr = ""
			// Break words that don't fit on a line of their own
			for font.MeasureString(face, w).Ceil() > width && len([]rune(w)) > 1 {
				runes := []rune(w)
				n := len(runes) - 1
				for n > 1 && font.MeasureString(face, string(runes[:n])).Ceil() > width {
					n--
				}
				out = append(out, string(runes[:n]))
				w = string(runes[n:])
			}
			curr = w
		}
		if curr != "" {
			out = append(out, curr)
		}
	}
	return out
}

type raster struct {
	img   *image.RGBA
	font  *opentype.Font
	faces []font.Face
}

func (r *raster) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := newFace(f, size)
	if err != nil {
		return nil, fmt.Errorf("export: couldn't create font face: %w", err)
	}
	r.faces = append(r.faces, face)
	return face, nil
}

func (r *raster) Image() image.Image {
	if r.img == nil {
		return nil
	}
	return r.img
}

func (r *raster) DrawText(text string, size float64, inset int, c color.Color) error {
	if r.img == nil {
		return fmt.Errorf("export: raster released")
	}
	face, err := r.face(r.font, size)
	if err != nil {
		return err
	}
	b := r.img.Bounds()
	x := b.Max.X - font.MeasureString(face, text).Ceil() - inset
	y := b.Max.Y - inset
	drawString(r.img, face, c, x, y, text)
	return nil
}

func (r *raster) Release() {
	for _, f := range r.faces {
		_ = f.Close()
	}
	r.faces = nil
	r.img = nil
}
