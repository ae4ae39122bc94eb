package clipboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/igolaizola/rapgen/pkg/lyrics"
)

// Clipboard copies text to the system clipboard.
type Clipboard struct {
	write       func(string) error
	unsupported bool
}

func New() *Clipboard {
	return &Clipboard{
		write:       clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

// Copy writes text to the clipboard. Blank text is ignored. Failures are
// returned wrapped in lyrics.ErrClipboard.
func (c *Clipboard) Copy(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.unsupported {
		return fmt.Errorf("clipboard: not supported on this system: %w", lyrics.ErrClipboard)
	}
	if err := c.write(text); err != nil {
		return fmt.Errorf("clipboard: couldn't copy: %w: %v", lyrics.ErrClipboard, err)
	}
	return nil
}
