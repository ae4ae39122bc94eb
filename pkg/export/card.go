package export

import "image/color"

// Card is the visual representation of the lyric card shown to the user.
// Sizes are expressed in layout units and multiplied by the render scale.
type Card struct {
	Header string
	Text   string
	Footer string

	Width int
	// MaxHeight clips the card in the live view, zero means unbounded.
	MaxHeight  int
	Padding    int
	FontSize   float64
	LineHeight float64

	Background color.Color
	Foreground color.Color
	Accent     color.Color
	Muted      color.Color
}

const placeholder = "Your lyrics will appear here..."

// DefaultCard returns the lyric card used by the web and terminal frontends.
func DefaultCard(text string) *Card {
	return &Card{
		Header:     "RapGen",
		Text:       text,
		Footer:     "— exported from RapGen",
		Width:      480,
		MaxHeight:  420,
		Padding:    24,
		FontSize:   15,
		LineHeight: 1.6,
		Background: color.RGBA{0x03, 0x07, 0x0e, 0xff},
		Foreground: color.RGBA{0xf1, 0xf5, 0xf9, 0xff},
		Accent:     color.RGBA{0x34, 0xd3, 0x99, 0xff},
		Muted:      color.RGBA{0x94, 0xa3, 0xb8, 0xff},
	}
}

// Detach returns an independent copy sized to its full content height, so
// text clipped in the live view isn't cut off.
func (c *Card) Detach() *Card {
	cp := *c
	cp.MaxHeight = 0
	return &cp
}

func (c *Card) body() string {
	if c.Text == "" {
		return placeholder
	}
	return c.Text
}
