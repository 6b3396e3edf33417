package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/findrum/companyfacts/internal/client"
	"github.com/findrum/companyfacts/internal/collector"
	"github.com/findrum/companyfacts/internal/fetch"
	"github.com/findrum/companyfacts/internal/flatten"
	"github.com/findrum/companyfacts/internal/logging"
	"github.com/findrum/companyfacts/internal/pipeline"
	"github.com/findrum/companyfacts/internal/sink"
	"github.com/findrum/companyfacts/internal/stats"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download (or read) the archive, flatten it and write Parquet",
		Long: `Retrieves the companyfacts archive over HTTP, or reads it from --archive,
then extracts every CIK##########.json entry, keeps records whose frame starts
with the configured prefix and writes the rows as Parquet.

Malformed entries are logged and skipped; they never stop the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.email, "email", "", "contact email sent in the User-Agent (or $COMPANYFACTS_EMAIL)")
	f.StringVar(&opts.url, "url", "", "archive URL")
	f.StringVar(&opts.archive, "archive", "", "read the archive from this local path instead of downloading")

	return cmd
}

func (o *options) run(ctx context.Context, out io.Writer) error {
	store, closeStore, err := o.openStorage()
	if err != nil {
		return err
	}
	defer closeStore()

	archive, err := o.loadArchive(ctx)
	if err != nil {
		return err
	}

	p, err := o.newPipeline(store)
	if err != nil {
		return err
	}

	summary, err := p.Run(ctx, archive)
	if err != nil {
		return err
	}

	printSummary(out, summary)
	return nil
}

func (o *options) loadArchive(ctx context.Context) ([]byte, error) {
	src := o.cfg.Source

	if src.ArchivePath != "" {
		logging.FromContext(ctx, "cli").Info("reading local archive", "path", src.ArchivePath)
		return client.ReadAll(ctx, client.NewLocalClient(""), src.ArchivePath)
	}

	f, err := fetch.New(fetch.Options{
		URL:        src.URL,
		Email:      src.Email,
		Timeout:    src.Timeout,
		MaxRetries: src.MaxRetries,
		Backoff:    src.RetryBackoff,
	})
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx)
}

func (o *options) newPipeline(store client.Client) (*pipeline.Pipeline, error) {
	sinkOpts := sink.DefaultOptions()
	sinkOpts.Compression = sink.ParseCompressionType(o.cfg.Sink.Compression)

	return pipeline.New(
		collector.New(collector.Options{}),
		flatten.New(flatten.Options{FramePrefix: o.cfg.Processor.FramePrefix}),
		sink.NewParquetWriter(store, sinkOpts),
		pipeline.Options{
			Path:    o.cfg.Sink.Path,
			Mode:    pipeline.Mode(o.cfg.Sink.Mode),
			Workers: o.cfg.Pipeline.Workers,
		},
	)
}

func printSummary(w io.Writer, s stats.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "duration\t%s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(tw, "documents\t%d\n", s.Documents)
	fmt.Fprintf(tw, "empty documents\t%d\n", s.EmptyDocuments)
	fmt.Fprintf(tw, "skipped entries\t%d (parse %d, unexpected %d)\n", s.SkippedEntries(), s.ParseErrors, s.Unexpected)
	fmt.Fprintf(tw, "rows\t%d\n", s.Rows)
	fmt.Fprintf(tw, "rows per document\tmin %d, p50 %.0f, p90 %.0f, p99 %.0f, max %d\n",
		s.MinRowsPerDoc, s.P50RowsPerDoc, s.P90RowsPerDoc, s.P99RowsPerDoc, s.MaxRowsPerDoc)
	fmt.Fprintf(tw, "files written\t%d (%d bytes)\n", s.FilesWritten, s.BytesWritten)
	tw.Flush()
}
