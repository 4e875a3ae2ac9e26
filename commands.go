package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/giygas/sheets-sync/config"
	"github.com/giygas/sheets-sync/data"
	"github.com/giygas/sheets-sync/handlers"
	"github.com/giygas/sheets-sync/health"
	"github.com/giygas/sheets-sync/logging"
	"github.com/giygas/sheets-sync/scheduler"
	"github.com/giygas/sheets-sync/server"
	"github.com/giygas/sheets-sync/sheets"
	"github.com/giygas/sheets-sync/storage"
	"github.com/giygas/sheets-sync/syncer"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long serve waits for ongoing requests
const shutdownTimeout = 30 * time.Second

type globalFlags struct {
	verbose bool
	output  string
	sheet   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "sheets-sync",
		Short: "Mirror the tables of a public spreadsheet into JSON files",
		Long: `sheets-sync discovers the tabs of a public spreadsheet, downloads each one
as CSV and writes one JSON file per table plus a combined db.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), flags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level on the console")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "", "Output directory (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVarP(&flags.sheet, "sheet", "s", "", "Spreadsheet identifier or URL (overrides SHEET_ID)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "sync",
			Short: "Run one sync and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSync(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "discover",
			Short: "Print the tables a sync would fetch, without fetching them",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDiscover(cmd.Context(), cmd.OutOrStdout(), flags)
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Sync now, then on schedule until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWatch(cmd.Context(), flags, false)
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Like watch, and serve the synced tables over HTTP",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWatch(cmd.Context(), flags, true)
			},
		},
	)

	return rootCmd
}

// setup loads the configuration, applies the flags and starts logging
func setup(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.output != "" {
		cfg.OutputDir = flags.output
	}
	if flags.sheet != "" {
		if err := cfg.SetSheet(flags.sheet); err != nil {
			return nil, err
		}
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        flags.verbose,
		RetentionWeeks: cfg.LogRetentionWeeks,
	})

	return cfg, nil
}

func newSyncer(cfg *config.Config) *syncer.Syncer {
	client := sheets.NewClient(cfg.BaseURL, cfg.HTTPTimeout, cfg.MaxResponseSize)

	var discoverer syncer.Discoverer
	if cfg.Discovery {
		discoverer = sheets.NewDiscoverer(client)
	}

	return syncer.New(cfg, client, discoverer, storage.NewWriter(cfg.OutputDir))
}

func runSync(ctx context.Context, flags *globalFlags) error {
	cfg, err := setup(flags)
	if err != nil {
		return err
	}

	_, err = newSyncer(cfg).Run(ctx)
	return err
}

func runDiscover(ctx context.Context, out io.Writer, flags *globalFlags) error {
	cfg, err := setup(flags)
	if err != nil {
		return err
	}

	tables := newSyncer(cfg).Tables(ctx)
	return printTables(out, tables)
}

func printTables(out io.Writer, tables *sheets.TableSet) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGID\tSOURCE\tHEADER ROW\tFILE")
	for _, ref := range tables.Refs() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s.json\n", ref.Name, ref.GID, ref.Source, ref.HeaderRow, sheets.SanitizeName(ref.Name))
	}
	return w.Flush()
}

// runWatch syncs on schedule until ctx is done, serving the tables when serve is set
func runWatch(ctx context.Context, flags *globalFlags, serve bool) error {
	cfg, err := setup(flags)
	if err != nil {
		return err
	}

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	sched := scheduler.NewScheduler(dataContainer, newSyncer(cfg), scheduler.Options{
		SyncAt:       cfg.SyncAt,
		Interval:     cfg.SyncInterval,
		RunOnStartup: true,
	})

	var srv *server.Server
	serverErr := make(chan error, 1)
	if serve {
		handler := handlers.NewHTTPHandler(dataContainer, health.NewHealthChecker(dataContainer, sched))
		srv = server.NewServer(cfg, handler)

		// Serve while the initial sync runs, /health reports it as updating
		go func() {
			serverErr <- srv.Start()
		}()
	}

	// Stop cancels the initial sync when ctx is done while it runs
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			sched.Stop()
		case <-stopped:
		}
	}()

	if err := sched.Start(); err != nil {
		close(stopped)
		sched.Stop()
		return shutdown(srv, err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received")
	case runErr = <-serverErr:
		logging.Error("Server stopped", "error", runErr)
	}

	close(stopped)
	sched.Stop()
	return shutdown(srv, runErr)
}

func shutdown(srv *server.Server, err error) error {
	if srv == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}
