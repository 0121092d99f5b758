package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lshdb"
)

type buildFlags struct {
	config      string
	input       string
	path        string
	compression string
	seed        uint64
	sparse      bool
}

func newBuildCmd(g *globalFlags) *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a database from a vector file",
		Long: `Build hashes every vector of the input file and writes the permuted
indexes. Each input line holds an id followed by dense components or
position:value pairs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, g, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "YAML configuration file")
	fl.StringVar(&f.input, "input", "", "vector file (- reads stdin)")
	fl.StringVar(&f.path, "path", "", "database directory, overrides the configuration")
	fl.StringVar(&f.compression, "compression", "none", "block compression (none, lz4, zstd)")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed for reproducible builds (0 picks one)")
	fl.BoolVar(&f.sparse, "sparse-hyperplanes", false, "use sparse random hyperplanes")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBuild(cmd *cobra.Command, g *globalFlags, f *buildFlags) error {
	cfg := lshdb.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = lshdb.LoadConfigFile(f.config); err != nil {
			return err
		}
	}
	if f.path != "" {
		cfg.Path = f.path
	}

	opts, err := g.options()
	if err != nil {
		return err
	}
	comp, err := lshdb.ParseCompression(f.compression)
	if err != nil {
		return err
	}
	opts = append(opts, lshdb.WithCompression(comp))
	if f.seed != 0 {
		opts = append(opts, lshdb.WithSeed(f.seed))
	}
	if f.sparse {
		opts = append(opts, lshdb.WithSparseHyperplanes())
	}

	in := cmd.InOrStdin()
	if f.input != "-" {
		file, err := os.Open(f.input)
		if err != nil {
			return err
		}
		defer file.Close()
		in = file
	}

	db, err := lshdb.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	r := newVectorReader(in, cfg.InputDimension)
	if err := db.SubmitInputVectors(ctx, r.All()); err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("read %s: %w", f.input, err)
	}
	if err := db.Create(ctx); err != nil {
		return err
	}

	s := db.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "built %d vectors into %d tables at %s (build %s)\n",
		s.Vectors, s.Tables, cfg.Path, s.BuildID)
	return nil
}
