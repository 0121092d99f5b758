package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lshdb"
)

type globalFlags struct {
	logLevel    string
	logJSON     bool
	workers     int
	cacheBlocks int
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "lshdb",
		Short:        "Approximate nearest neighbor search with locality sensitive hashing",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&g.logJSON, "log-json", false, "emit JSON logs")
	pf.IntVar(&g.workers, "workers", 0, "worker pool size (0 uses GOMAXPROCS)")
	pf.IntVar(&g.cacheBlocks, "cache-blocks", 0, "maximum cached blocks (0 is unbounded)")

	root.AddCommand(newBuildCmd(g), newQueryCmd(g), newInfoCmd(g))
	return root
}

// options turns the global flags into database options.
func (g *globalFlags) options() ([]lshdb.Option, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", g.logLevel, err)
	}

	logger := lshdb.NewTextLogger(level)
	if g.logJSON {
		logger = lshdb.NewJSONLogger(level)
	}

	opts := []lshdb.Option{lshdb.WithLogger(logger)}
	if g.workers > 0 {
		opts = append(opts, lshdb.WithWorkers(g.workers))
	}
	if g.cacheBlocks > 0 {
		opts = append(opts, lshdb.WithCacheBlocks(g.cacheBlocks))
	}
	return opts, nil
}
