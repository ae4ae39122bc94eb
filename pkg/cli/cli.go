package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/igolaizola/rapgen"
	"github.com/igolaizola/rapgen/pkg/cmd/beats"
	"github.com/igolaizola/rapgen/pkg/cmd/export"
	"github.com/igolaizola/rapgen/pkg/cmd/generate"
	"github.com/igolaizola/rapgen/pkg/cmd/play"
	"github.com/igolaizola/rapgen/pkg/cmd/presets"
	"github.com/igolaizola/rapgen/pkg/cmd/serve"
	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

const envPrefix = "RAPGEN"

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("rapgen", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "rapgen [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newGenerateCommand(),
			newPlayCommand(),
			newExportCommand(),
			newServeCommand(),
			newBeatsCommand(),
			newPresetsCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "rapgen version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func options() []ff.Option {
	return []ff.Option{
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parser),
		ff.WithEnvVarPrefix(envPrefix),
	}
}

// backendVars registers the flags of the lyrics backend.
func backendVars(fs *flag.FlagSet, cfg *rapgen.Config) {
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.BoolVar(&cfg.Production, "production", false, "production mode, hides error details (NODE_ENV=production also enables it)")
	fs.StringVar(&cfg.OpenAIKey, "openai-key", "", "openai api key (defaults to OPENAI_API_KEY)")
	fs.StringVar(&cfg.GroqKey, "groq-key", "", "groq api key, preferred over the openai key (defaults to GROQ_API_KEY)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "openai compatible base url (defaults to GROQ_BASE_URL)")
	fs.StringVar(&cfg.Model, "model", "", "model name (defaults to GROQ_MODEL_NAME or OPENAI_MODEL_NAME)")
	fs.StringVar(&cfg.Server, "server", "", "url of a rapgen server to request lyrics to instead of the backend")
}

func requestVars(fs *flag.FlagSet, cfg *generate.Config) {
	backendVars(fs, &cfg.Config)
	fs.StringVar(&cfg.Theme, "theme", "", "theme of the verse")
	fs.StringVar(&cfg.Mood, "mood", "", "mood or vibe of the verse")
	fs.StringVar(&cfg.Length, "length", "", "length of the verse (short, medium, long)")
	fs.StringVar(&cfg.Preset, "preset", "", "quick preset label (see presets command)")
	fs.StringVar(&cfg.Presets, "presets", "", "yaml or csv file with extra presets (fields: label,theme,mood,length)")
	fs.StringVar(&cfg.FSType, "fs-type", "", "fs type to save outputs (local, s3)")
	fs.StringVar(&cfg.FSConn, "fs-conn", "", "path for local, key:secret@bucket.region[/prefix] for s3")
	fs.BoolVar(&cfg.Copy, "copy", false, "copy the lyrics to the clipboard")
}

func newGenerateCommand() *ffcli.Command {
	cmd := "generate"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &generate.Config{}
	requestVars(fs, cfg)

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "generate a rap verse",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg.Env()
			return generate.Run(ctx, cfg)
		},
	}
}

func newPlayCommand() *ffcli.Command {
	cmd := "play"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &play.Config{}
	requestVars(fs, &cfg.Config)
	fs.StringVar(&cfg.Input, "input", "", "text file with lyrics, generated when empty")
	fs.StringVar(&cfg.Beat, "beat", "", "beat file name, path or url (mp3, wav)")
	fs.StringVar(&cfg.BeatsDir, "beats", "", "beats folder")
	fs.DurationVar(&cfg.Interval, "interval", 250*time.Millisecond, "time update interval")
	fs.BoolVar(&cfg.Export, "export", false, "save the lyrics and the card when the beat ends")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "follow the lyrics over a beat",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg.Env()
			return play.Run(ctx, cfg)
		},
	}
}

func newExportCommand() *ffcli.Command {
	cmd := "export"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &export.Config{}
	requestVars(fs, &cfg.Config)
	fs.StringVar(&cfg.Input, "input", "", "text file with lyrics, generated when empty")
	fs.StringVar(&cfg.Watermark, "watermark", "RapGen", "watermark text")
	fs.StringVar(&cfg.Filename, "filename", "lyrics.png", "output file name")
	fs.StringVar(&cfg.Font, "font", "", "ttf or otf font file (go font when empty)")
	fs.StringVar(&cfg.FontBold, "font-bold", "", "ttf or otf bold font file (go bold font when empty)")
	fs.Float64Var(&cfg.Scale, "scale", 2, "render scale")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "export the lyric card to png",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg.Env()
			return export.Run(ctx, cfg)
		},
	}
}

func newServeCommand() *ffcli.Command {
	cmd := "serve"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &serve.Config{}
	backendVars(fs, &cfg.Config)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	fs.StringVar(&cfg.Addr, "addr", "0.0.0.0:"+port, "address to listen on (port defaults to PORT)")
	fs.StringVar(&cfg.Dist, "dist", "dist", "frontend build folder")
	fs.StringVar(&cfg.BeatsDir, "beats", "", "beats folder served under /beats")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type to cache the beat catalog (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")
	fs.StringVar(&cfg.Watermark, "watermark", "RapGen", "default watermark of exported cards")
	fs.BoolVar(&cfg.Open, "open", false, "open the browser")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "serve the lyrics api and the frontend",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			cfg.Env()
			return serve.Run(ctx, cfg)
		},
	}
}

func newBeatsCommand() *ffcli.Command {
	cmd := "beats"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &beats.Config{}
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Dir, "dir", "beats", "beats folder")
	fs.StringVar(&cfg.DBType, "db-type", "", "db type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "path for sqlite, dsn for mysql or postgres")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "scan the beats folder",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return beats.Run(ctx, cfg)
		},
	}
}

func newPresetsCommand() *ffcli.Command {
	cmd := "presets"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &presets.Config{}
	fs.StringVar(&cfg.Presets, "presets", "", "yaml or csv file with extra presets")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("rapgen %s [flags]", cmd),
		Options:    options(),
		ShortHelp:  "list quick presets and lengths",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			return presets.Run(ctx, cfg)
		},
	}
}
