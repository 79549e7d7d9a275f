// Command srim-layers prints the layers found in a SRIM collision log.
//
//	srim-layers [-json] [-stats] [-base 0|1] COLLISON.TXT
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/srim/internal/app"
	"github.com/okian/srim/internal/config"
	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/pkg/logger"
	"github.com/okian/srim/pkg/metrics"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("srim-layers", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		asJSON    = fs.Bool("json", false, "Print layers as JSON")
		withStats = fs.Bool("stats", false, "Print energy statistics per layer")
		base      = fs.Int("base", -1, "Index of the first layer (0 or 1); defaults to layer_index_base")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: srim-layers [-json] [-stats] [-base 0|1] COLLISON.TXT")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitFailure
	}
	if *base >= 0 {
		cfg.LayerIndexBase = *base
	}
	metrics.SetEnabled(cfg.MetricsEnabled)

	// Logs go to stderr so stdout stays machine readable.
	if err := logger.InitWithOptions(logger.Options{Output: stderr, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitFailure
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	out, err := app.Process(ctx, fs.Arg(0),
		app.WithLogger(logger.Named("srim-layers")),
		app.WithFormat(cfg.ParserFormat()),
		app.WithIndexBase(cfg.LayerIndexBase),
	)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return exitFailure
		}
		return exitOK
	}
	printLayers(stdout, out, *withStats)
	return exitOK
}

func printLayers(w io.Writer, out []model.Layer, withStats bool) {
	for _, l := range out {
		if withStats {
			fmt.Fprintf(w, "%d %s %d %.6g %.6g %.6g %.6g %.6g %.6g\n",
				l.Index, l.Atom, l.Count, l.Mean, l.StdDev, l.StdErr, l.MinEnergy, l.DepthMin, l.DepthMax)
			continue
		}
		fmt.Fprintln(w, l.Index, l.Atom, l.Count)
	}
}
