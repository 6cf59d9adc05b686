package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-ledger/internal/api/client"
	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

// app is the state shared by every subcommand, filled in by PersistentPreRunE.
type app struct {
	cfgFile   string
	server    string
	logLevel  string
	logFormat string

	cfg     config.Config
	zone    *time.Location
	log     zerolog.Logger
	logFile io.Closer
	client  *client.Client
	now     func() time.Time
}

func main() {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(&app{now: time.Now}).ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledger",
		Short: "Expense ledger dashboard and tools",
		Long: `ledger talks to an expense ledger server: browse transactions with live
deletion countdowns, delete recent entries, add new ones and print reports.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.init,
		PersistentPostRunE: a.close,
	}

	// Global flags
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./ledger.yaml or $HOME/.config/expense-ledger/ledger.yaml)")
	root.PersistentFlags().StringVar(&a.server, "server", "", "ledger server base URL, overrides server.base_url")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	// Add commands
	root.AddCommand(tuiCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(showCmd(a))
	root.AddCommand(addCmd(a))
	root.AddCommand(deleteCmd(a))
	root.AddCommand(reportCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(versionCmd())

	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.Server.BaseURL = a.server
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	zone, err := cfg.Location()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so it logs to a file.
	var out io.Writer = cmd.ErrOrStderr()
	if cmd.Name() == "tui" && cfg.TUI.LogFile != "" {
		f, err := logger.OpenFile(cfg.TUI.LogFile)
		if err != nil {
			return err
		}
		a.logFile = f
		out = f
	}

	log, err := logger.NewFromConfig(out, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	a.cfg = cfg
	a.zone = zone
	a.log = log
	a.client = client.New(cfg.Server.BaseURL, client.WithLogger(log))
	if a.now == nil {
		a.now = time.Now
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

func (a *app) close(*cobra.Command, []string) error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading for version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledger %s\n", version)
		},
	}
}
