package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/findrum/companyfacts/config"
	"github.com/findrum/companyfacts/internal/query"
)

func newInspectCmd(opts *options) *cobra.Command {
	var memoryLimit string

	cmd := &cobra.Command{
		Use:   "inspect <file-or-glob>",
		Short: "Summarize written Parquet output with DuckDB",
		Long: `Reports the row count, distinct entities, frames and tags, and the tags
with the most rows for one Parquet file or a glob such as out/*.parquet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := query.New(query.Options{MemoryLimit: memoryLimit})
			if err != nil {
				return err
			}
			defer svc.Close()

			sum, err := svc.Summarize(cmd.Context(), args[0], opts.top)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "rows\t%d\n", sum.Rows)
			fmt.Fprintf(tw, "entities\t%d\n", sum.Entities)
			fmt.Fprintf(tw, "frames\t%d\n", sum.Frames)
			fmt.Fprintf(tw, "tags\t%d\n", sum.Tags)
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "TAG\tROWS")
			for _, tc := range sum.TopTags {
				fmt.Fprintf(tw, "%s\t%d\n", tc.Tag, tc.Rows)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&opts.top, "top", "n", config.DefaultTopTags, "number of tags to list")
	cmd.Flags().StringVar(&memoryLimit, "memory-limit", config.DefaultQueryMemoryLimit, "DuckDB memory limit")

	return cmd
}
