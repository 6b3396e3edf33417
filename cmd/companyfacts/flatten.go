package main

import (
	"github.com/spf13/cobra"

	"github.com/findrum/companyfacts/internal/reader"
)

func newFlattenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten <input.jsonl>",
		Short: "Flatten a JSON Lines table of documents into Parquet",
		Long: `Reads a JSON Lines file through the configured storage backend, one
document per line with keys cik/entity_id, entityName/entity_name and facts,
and writes the flattened rows as Parquet.

The command fails without writing when no line carries a facts key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := opts.openStorage()
			if err != nil {
				return err
			}
			defer closeStore()

			tbl, err := reader.NewJSONLReader(store).Read(ctx, args[0])
			if err != nil {
				return err
			}

			p, err := opts.newPipeline(store)
			if err != nil {
				return err
			}

			summary, err := p.RunTable(ctx, tbl)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
