// companyfacts flattens the SEC companyfacts archive into Parquet.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/findrum/companyfacts/internal/client"
	"github.com/findrum/companyfacts/internal/config"
	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// options holds flag values shared by all commands.
type options struct {
	configPath string

	logLevel  string
	logFormat string

	framePrefix string
	out         string
	mode        string
	compression string
	workers     int

	backend   string
	root      string
	badgerDir string

	email   string
	url     string
	archive string

	top int

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration and usage problems to 2, everything else to 1.
func exitCode(err error) int {
	if errors.IsValidation(err) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "companyfacts",
		Short: "Flatten SEC companyfacts documents into Parquet",
		Long: `companyfacts downloads the SEC companyfacts bulk archive, flattens every
document's taxonomy/tag/unit/record hierarchy into rows and writes them as
Parquet through a local, badger or in-memory storage backend.

Configuration is read from --config (YAML); flags override file values and
$COMPANYFACTS_EMAIL supplies source.email when unset.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: auto, json, text")
	pf.StringVar(&opts.framePrefix, "frame-prefix", "", "keep records whose frame starts with this prefix")
	pf.StringVarP(&opts.out, "out", "o", "", "output file (single) or directory (partitioned)")
	pf.StringVar(&opts.mode, "mode", "", "output mode: single, partitioned")
	pf.StringVar(&opts.compression, "compression", "", "parquet codec: none, snappy, zstd, lz4, gzip")
	pf.IntVarP(&opts.workers, "workers", "w", 0, "concurrent flatten workers")
	pf.StringVar(&opts.backend, "backend", "", "storage backend: local, badger, memory")
	pf.StringVar(&opts.root, "root", "", "root directory for the local backend")
	pf.StringVar(&opts.badgerDir, "badger-dir", "", "database directory for the badger backend")

	root.AddCommand(newRunCmd(opts), newFlattenCmd(opts), newInspectCmd(opts))
	return root
}

// load reads the config file, applies flag overrides and initializes logging.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}

	set("log-level", func() { cfg.Logging.Level = o.logLevel })
	set("log-format", func() { cfg.Logging.Format = o.logFormat })
	set("frame-prefix", func() { cfg.Processor.FramePrefix = o.framePrefix })
	set("out", func() { cfg.Sink.Path = o.out })
	set("mode", func() { cfg.Sink.Mode = o.mode })
	set("compression", func() { cfg.Sink.Compression = o.compression })
	set("workers", func() { cfg.Pipeline.Workers = o.workers })
	set("backend", func() { cfg.Storage.Backend = o.backend })
	set("root", func() { cfg.Storage.Root = o.root })
	set("badger-dir", func() { cfg.Storage.BadgerDir = o.badgerDir })
	set("email", func() { cfg.Source.Email = o.email })
	set("url", func() { cfg.Source.URL = o.url })
	set("archive", func() { cfg.Source.ArchivePath = o.archive })

	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.InitWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level), logging.UseJSON(cfg.Logging.Format))
	logging.Debug("configuration loaded", "config", o.configPath, "version", Version)

	o.cfg = cfg
	return nil
}

func (o *options) openStorage() (client.Client, func() error, error) {
	return client.Open(client.Config{
		Backend:   o.cfg.Storage.Backend,
		Root:      o.cfg.Storage.Root,
		BadgerDir: o.cfg.Storage.BadgerDir,
	})
}
