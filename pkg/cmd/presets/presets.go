package presets

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/igolaizola/rapgen/pkg/lyrics"
)

type Config struct {
	Presets string
}

// Run prints the quick presets and the length options.
func Run(ctx context.Context, cfg *Config) error {
	return list(os.Stdout, cfg)
}

func list(out io.Writer, cfg *Config) error {
	presets := lyrics.DefaultPresets()
	if cfg.Presets != "" {
		extra, err := lyrics.LoadPresets(cfg.Presets)
		if err != nil {
			return fmt.Errorf("presets: %w", err)
		}
		presets = append(presets, extra...)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTHEME\tMOOD\tLENGTH")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Label, p.Theme, p.Mood, p.Length)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "LENGTH\tOPTION\tTOKENS")
	for _, l := range lyrics.Lengths() {
		p, _ := lyrics.ProfileOf(l)
		fmt.Fprintf(w, "%s\t%s\t%d\n", l, p.Option, p.Budget)
	}
	return w.Flush()
}
