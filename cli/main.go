package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ankit-chaubey/photo-manifest/core"
	"github.com/ankit-chaubey/photo-manifest/core/env"
	"github.com/ankit-chaubey/photo-manifest/core/image"
	"github.com/ankit-chaubey/photo-manifest/core/manifest"
	"github.com/ankit-chaubey/photo-manifest/core/pipeline"
	"github.com/ankit-chaubey/photo-manifest/core/tags"
)

const usage = `Usage:
  photo-manifest view [-json] [-v] <image>
  photo-manifest manifest [-workers N] [-o output.json] [-v] [root]

Settings are read from .env and the environment:
  PHOTO_ROOT_DIR, OUTPUT_JSON_FILE, MANIFEST_WORKERS,
  MANIFEST_EXCLUDED_TAGS, APP_ENV`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := env.Load(); err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "view":
		err = runView(os.Args[2:])
	case "manifest":
		err = runManifest(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print the record as JSON")
	verbose := fs.Bool("v", false, "also print raw tags and issues")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("view takes exactly one image path")
	}
	path := fs.Arg(0)

	logger := newLogger(*verbose)
	defer logger.Sync() //nolint:errcheck

	src, err := image.Open(path, logger)
	if err != nil {
		return err
	}
	res := pipeline.Extract(src, core.DefaultConfig().WithExcluded(env.GetList("MANIFEST_EXCLUDED_TAGS")...))

	p := core.NewPrinter(*jsonOut, *verbose)
	p.PrintRecord(path, src.Format, res.Record, res.Issues)
	p.PrintRawTags(tags.Describe(res.Raw))
	return nil
}

func runManifest(args []string) error {
	s := manifest.SettingsFromEnv()
	fs := flag.NewFlagSet("manifest", flag.ContinueOnError)
	fs.IntVar(&s.Workers, "workers", s.Workers, "concurrent extractions")
	fs.StringVar(&s.Output, "o", s.Output, "manifest output file")
	verbose := fs.Bool("v", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		s.Root = fs.Arg(0)
	}

	logger := newLogger(*verbose).With(zap.String("run", uuid.NewString()))
	defer logger.Sync() //nolint:errcheck

	b, err := manifest.New(s, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m, err := b.Run(ctx)
	if err != nil {
		return err
	}

	p := core.NewPrinter(false, *verbose)
	p.PrintSuccess(fmt.Sprintf("processed %d images", m.Processed))
	if m.Skipped > 0 {
		p.PrintInfo(fmt.Sprintf("skipped %d files due to errors", m.Skipped))
	}
	p.PrintInfo("manifest file created: " + s.Output)
	return nil
}

// newLogger returns a production JSON logger, or a console logger when
// APP_ENV=dev or verbose is set. Console output is colored on a terminal.
func newLogger(verbose bool) *zap.Logger {
	if !verbose && !env.IsDev() {
		logger, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	c := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(colorable.NewColorableStderr()),
		zap.DebugLevel,
	)
	return zap.New(c, zap.AddCaller())
}
