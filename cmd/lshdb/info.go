package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/lshdb"
)

type infoOutput struct {
	Config lshdb.Config `yaml:"config"`
	Stats  infoStats    `yaml:"stats"`
}

type infoStats struct {
	BuildID string `yaml:"build_id"`
	State   string `yaml:"state"`
	Vectors int    `yaml:"vectors"`
	Blocks  []int  `yaml:"blocks_per_table,flow"`
}

func newInfoCmd(g *globalFlags) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the configuration and size of a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := g.options()
			if err != nil {
				return err
			}
			db, err := lshdb.Open(cmd.Context(), path, opts...)
			if err != nil {
				return err
			}
			defer db.Close()

			s := db.Stats()
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			err = enc.Encode(infoOutput{
				Config: db.Config(),
				Stats: infoStats{
					BuildID: s.BuildID,
					State:   s.State,
					Vectors: s.Vectors,
					Blocks:  s.Blocks,
				},
			})
			if err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&path, "path", lshdb.DefaultConfig().Path, "database directory")
	return cmd
}
