package main

import (
	"context"
	goflag "flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/gridsync/gridsync/internal/config"
	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
	datasync "github.com/gridsync/gridsync/internal/sync"
	"github.com/gridsync/gridsync/internal/ui"
	"github.com/gridsync/gridsync/internal/view"
)

const (
	appName    = "gridsync"
	appVersion = "0.1.0"

	demoTableName = "executions"
	demoRows      = 250
)

var (
	rootFlags *config.Flags
	rootCmd   = &cobra.Command{
		Use:   appName,
		Short: "A terminal grid client for remote tables",
		Long:  `gridsync is a terminal data grid that live-syncs a remote table, either mirroring it in full or paging a viewport window.`,
		RunE:  run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	}
)

func init() {
	rootFlags = config.NewFlags()
	initRootFlags()
	rootCmd.AddCommand(versionCmd)
}

func initRootFlags() {
	rootCmd.Flags().Float32VarP(rootFlags.RefreshRate, "refresh", "r", config.DefaultRefreshRate, "Demo feed refresh rate in seconds")
	rootCmd.Flags().StringVarP(rootFlags.LogLevel, "logLevel", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(rootFlags.LogFile, "logFile", "", "Log file path")
	rootCmd.Flags().StringVarP(rootFlags.Server, "server", "s", "", "Configured server to connect to")
	rootCmd.Flags().StringVarP(rootFlags.Table, "table", "t", "", "Remote table to open")
	rootCmd.Flags().StringVarP(rootFlags.Mode, "mode", "m", "", "Sync strategy: bulk or viewport")
	rootCmd.Flags().StringVar(rootFlags.Edition, "edition", "", "Server edition override: community or enterprise")
	rootCmd.Flags().BoolVar(rootFlags.Headless, "headless", false, "Log sync output instead of running the UI")
	rootCmd.Flags().BoolVar(rootFlags.Demo, "demo", false, "Run against the built-in demo feed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		glog.Exit(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.InitLocs(); err != nil {
		return fmt.Errorf("failed to initialize locations: %w", err)
	}
	initLogging()

	cfg, err := config.Load(config.AppConfigFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, ok := cfg.Server(*rootFlags.Server)
	if !ok && config.IsStringSet(rootFlags.Server) {
		return fmt.Errorf("server %q is not configured", *rootFlags.Server)
	}
	if config.IsStringSet(rootFlags.Table) {
		server.Table = *rootFlags.Table
	}
	if config.IsStringSet(rootFlags.Mode) {
		server.Mode = strings.ToLower(*rootFlags.Mode)
	}
	if config.IsStringSet(rootFlags.Edition) {
		server.Edition = *rootFlags.Edition
	}
	if server.Mode == "" {
		server.Mode = config.ModeBulk
	}

	demo := config.IsBoolSet(rootFlags.Demo)
	if !demo && server.URL == "" {
		if config.IsBoolSet(rootFlags.Headless) {
			// Nothing to dial and nobody to ask; fall back to the
			// demo feed.
			demo = true
		} else {
			return runInteractive(cfg, server)
		}
	}

	var (
		table     remote.Table
		tableName string
		enc       remote.TemporalEncoder
	)
	if demo {
		feed := remote.NewDemoFeed(time.Now().UnixNano(), demoRows)
		feed.Start(ctx, refreshInterval(cfg))
		table, tableName = feed.Table(), demoTableName
		enc = remote.EncoderFor(remote.EditionCommunity)
	} else {
		if server.Table == "" {
			return fmt.Errorf("no table selected for server %q", server.Name)
		}
		creds := config.NewCredentials(config.AppCredentialsFile)
		token, err := creds.Token(server.Name)
		if err != nil {
			return err
		}
		session, err := remote.Dial(ctx, server.URL, token)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", server.URL, err)
		}
		defer session.Close()

		if exp := session.Expiry(); !exp.IsZero() && time.Until(exp) < 5*time.Minute {
			glog.Warningf("token for %q expires at %s", server.Name, exp.Format(time.RFC3339))
		}

		edition := session.Edition()
		if server.Edition != "" {
			edition = remote.Edition(strings.ToLower(server.Edition))
		}
		enc = remote.EncoderFor(edition)

		table, err = session.OpenTable(server.Table)
		if err != nil {
			return fmt.Errorf("failed to open table %q: %w", server.Table, err)
		}
		tableName = server.Table
	}
	defer table.Close()

	windowed := server.Mode == config.ModeViewport
	if config.IsBoolSet(rootFlags.Headless) {
		return runHeadless(ctx, table, enc, windowed)
	}
	return runUI(cfg, table, tableName, enc, windowed)
}

// initLogging routes glog output per the flags. glog reads its
// settings off the standard flag set, which cobra never parses.
func initLogging() {
	goflag.CommandLine.Parse(nil)

	logFile := *rootFlags.LogFile
	if logFile == "" {
		logFile = config.AppLogFile
	}
	goflag.Set("log_file", logFile)
	goflag.Set("logtostderr", "false")
	if strings.EqualFold(*rootFlags.LogLevel, "debug") {
		goflag.Set("v", "2")
	}
}

func refreshInterval(cfg *config.Config) time.Duration {
	rate := *rootFlags.RefreshRate
	if rate == config.DefaultRefreshRate && cfg.RefreshRate > 0 {
		rate = cfg.RefreshRate
	}
	if rate <= 0 {
		rate = config.DefaultRefreshRate
	}
	return time.Duration(float64(time.Second) * float64(rate))
}

func runUI(cfg *config.Config, table remote.Table, tableName string, enc remote.TemporalEncoder, windowed bool) error {
	app := view.NewApp(appVersion)

	grid, stop, err := buildGrid(app, table, tableName, enc, windowed)
	if err != nil {
		return err
	}
	app.SetGrid(grid)
	app.SetStopFunc(stop)

	if err := app.Init(); err != nil {
		return err
	}

	// Config edits take effect on the next start; flag them so the
	// user knows a restart is pending.
	if watcher, err := config.Watch(config.AppConfigFile, func(*config.Config) {
		app.Flash().Warnf("configuration changed, restart to apply")
	}); err == nil {
		defer watcher.Stop()
	} else {
		glog.V(2).Infof("config watch unavailable: %v", err)
	}

	return app.Run()
}

// buildGrid constructs the grid and wires the chosen sync strategy to
// it. The returned stop tears the strategy down.
func buildGrid(app *view.App, table remote.Table, tableName string, enc remote.TemporalEncoder, windowed bool) (*ui.Grid, func(), error) {
	grid := ui.NewGrid(tableName, windowed)
	grid.Init()
	grid.SetHeader(table.Columns())
	// Updates may start flowing the moment the strategy starts; route
	// them through the app before that.
	grid.SetQueue(app.QueueUpdateDraw)

	if windowed {
		prov := datasync.NewProvider(table, enc)
		grid.SetViewportFunc(prov.SetViewportRange)
		grid.SetSortFunc(prov.ApplySort)
		grid.SetFilterFunc(prov.ApplyFilter)

		prov.Init(grid)
		prov.SetViewportRange(0, ui.DefaultPageSize-1)
		return grid, prov.Destroy, nil
	}

	// Bulk grids mirror the whole table and order the mirror locally;
	// only filters go back to the server.
	rec := datasync.NewReconciler()
	rec.AddListener(grid)
	grid.SetFilterFunc(func(m datasync.FilterModel) {
		if err := table.ApplyFilter(m.Condition(table.Columns(), enc)); err != nil {
			app.Flash().Err(err)
		}
	})
	if err := rec.Start(table); err != nil {
		return nil, nil, err
	}
	return grid, rec.Stop, nil
}

// runInteractive starts the UI with a connect form instead of a
// preconfigured connection.
func runInteractive(cfg *config.Config, server config.Server) error {
	app := view.NewApp(appVersion)
	form := ui.NewConnectForm(server.URL, server.Table, server.Mode)

	form.SetSubmitFunc(func(url, tableName, mode, token string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			session, err := remote.Dial(ctx, url, token)
			if err != nil {
				app.ShowError(fmt.Sprintf("connect %s: %v", url, err))
				return
			}
			table, err := session.OpenTable(tableName)
			if err != nil {
				session.Close()
				app.ShowError(fmt.Sprintf("open table %q: %v", tableName, err))
				return
			}

			enc := remote.EncoderFor(session.Edition())
			windowed := mode == config.ModeViewport
			grid, stop, err := buildGrid(app, table, tableName, enc, windowed)
			if err != nil {
				session.Close()
				app.ShowError(err.Error())
				return
			}
			app.SetStopFunc(func() {
				stop()
				table.Close()
				session.Close()
			})
			app.QueueUpdateDraw(func() {
				app.DismissConnect()
				app.SetGrid(grid)
			})
		}()
	})
	form.SetCancelFunc(app.Stop)

	if err := app.Init(); err != nil {
		return err
	}
	app.ShowConnect(form)
	return app.Run()
}

// runHeadless logs the sync stream to stdout until interrupted.
func runHeadless(ctx context.Context, table remote.Table, enc remote.TemporalEncoder, windowed bool) error {
	logger := &syncLogger{}

	if windowed {
		prov := datasync.NewProvider(table, enc)
		defer prov.Destroy()
		prov.Init(logger)
		prov.SetViewportRange(0, ui.DefaultPageSize-1)
	} else {
		rec := datasync.NewReconciler()
		rec.AddListener(logger)
		defer rec.Stop()
		if err := rec.Start(table); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}

// syncLogger prints sync output, serving both strategies.
type syncLogger struct{}

func (l *syncLogger) GridLoaded(header rowmodel.Header, rows rowmodel.Rows) {
	fmt.Printf("loaded %d rows, columns %v\n", len(rows), header.Names())
}

func (l *syncLogger) GridTransaction(tx rowmodel.Transaction) {
	fmt.Println(tx.String())
}

func (l *syncLogger) SetRowCount(n int64) {
	fmt.Printf("row count %d\n", n)
}

func (l *syncLogger) SetRows(offset int64, rows rowmodel.Rows) {
	fmt.Printf("rows [%d,%d]\n", offset, offset+int64(len(rows))-1)
}
