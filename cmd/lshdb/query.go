package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lshdb"
	"github.com/hupe1980/lshdb/vector"
)

type queryFlags struct {
	path   string
	input  string
	beam   int
	minSim float64
	limit  int
	json   bool
}

type queryOutput struct {
	Query   int32          `json:"query"`
	Results []lshdb.Result `json:"results"`
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [flags] [-- component...]",
		Short: "Find near neighbors of query vectors",
		Long: `Query searches an existing database. The query is either given as dense
components after "--" or read from --input, one vector per line in the
build input format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, g, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.path, "path", lshdb.DefaultConfig().Path, "database directory")
	fl.StringVar(&f.input, "input", "", "file of query vectors (- reads stdin)")
	fl.IntVar(&f.beam, "beam", 10, "entries inspected on each side of the query position")
	fl.Float64Var(&f.minSim, "min-sim", 0.0, "minimum estimated cosine similarity")
	fl.IntVar(&f.limit, "limit", 0, "maximum results per query (0 is unlimited)")
	fl.BoolVar(&f.json, "json", false, "emit JSON lines")
	return cmd
}

func runQuery(cmd *cobra.Command, g *globalFlags, f *queryFlags, args []string) error {
	if (len(args) == 0) == (f.input == "") {
		return fmt.Errorf("give either query components or --input")
	}

	opts, err := g.options()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, err := lshdb.Open(ctx, f.path, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	run := func(q vector.Vector) error {
		results, err := db.NearNeighbors(ctx, q, f.beam, f.minSim)
		if err != nil {
			return err
		}
		return printResults(out, q.ID(), results.Sorted(), f)
	}

	if len(args) > 0 {
		values, err := parseComponents(args)
		if err != nil {
			return err
		}
		return run(vector.NewDense(-1, values))
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
	r := newVectorReader(in, db.Config().InputDimension)
	for q := range r.All() {
		if err := run(q); err != nil {
			return err
		}
	}
	return r.Err()
}

func printResults(w io.Writer, query int32, results []lshdb.Result, f *queryFlags) error {
	if f.limit > 0 && len(results) > f.limit {
		results = results[:f.limit]
	}
	if f.json {
		return json.NewEncoder(w).Encode(queryOutput{Query: query, Results: results})
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%.6f\n", query, r.ID, r.Similarity); err != nil {
			return err
		}
	}
	return nil
}
