package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joshdurbin/shortenurl/internal/config"
	"github.com/joshdurbin/shortenurl/internal/metrics"
	"github.com/joshdurbin/shortenurl/internal/repository"
	"github.com/joshdurbin/shortenurl/internal/repository/sqlstore"
	"github.com/joshdurbin/shortenurl/internal/service"
	"github.com/joshdurbin/shortenurl/internal/shortener"
	"github.com/joshdurbin/shortenurl/internal/transport/cli"
)

const (
	defaultTimeout = 10 * time.Second

	databaseURLPrompt = "Provide database connection string (postgres://..., sqlite://... or a .db file):"
	domainPrompt      = "Provide primary domain (e.g. foo.com):"
)

// app carries the streams and global flags shared by every command
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	timeout    time.Duration
	verbose    bool
	metrics    bool

	databaseURL  string
	domain       string
	migrateDelay time.Duration
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shortenurl",
		Short:         "Manage shortened URL aliases",
		Long:          "A personal URL shortener that keeps alias to URL mappings in PostgreSQL or SQLite",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default <user config dir>/shortenurl/shortenurl.toml)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultTimeout, "Timeout for database operations")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.metrics, "metrics", false, "Print store metrics to stderr after the command")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configure the database connection and display domain",
		Args:  cobra.NoArgs,
		RunE:  a.runConfig,
	}
	configCmd.Flags().StringVar(&a.databaseURL, "database-url", "", "Database connection string (postgres://..., sqlite://... or a .db file)")
	configCmd.Flags().StringVar(&a.domain, "domain", "", "Domain shown in short URLs, e.g. foo.com")
	configCmd.Flags().DurationVar(&a.migrateDelay, "migrate-delay", 0, "Pause before applying the schema")

	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Create, look up and remove aliases",
	}

	getCmd := &cobra.Command{
		Use:   "get [ALIAS]",
		Short: "Show the URL behind an alias",
		Args:  cobra.ExactArgs(1),
		RunE: a.withCommands(func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error {
			return commands.Get(ctx, args[0])
		}),
	}

	var listOpts repository.ListOptions
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"get-all"},
		Short:   "List all aliases",
		Args:    cobra.NoArgs,
		RunE: a.withCommands(func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error {
			return commands.List(ctx, listOpts)
		}),
	}
	listCmd.Flags().IntVar(&listOpts.Limit, "limit", 0, "Maximum number of aliases to show (0 shows all)")
	listCmd.Flags().IntVar(&listOpts.Offset, "offset", 0, "Number of aliases to skip, used with --limit")

	createCmd := &cobra.Command{
		Use:   "create [URL]",
		Short: "Create an alias for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: a.withCommands(func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error {
			return commands.Create(ctx, args[0])
		}),
	}

	removeCmd := &cobra.Command{
		Use:   "remove-alias [ALIAS]",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: a.withCommands(func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error {
			return commands.Remove(ctx, args[0])
		}),
	}

	flushCmd := &cobra.Command{
		Use:   "flush",
		Short: "Remove every alias",
		Args:  cobra.NoArgs,
		RunE: a.withCommands(func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error {
			return commands.Flush(ctx)
		}),
	}

	aliasCmd.AddCommand(getCmd, listCmd, createCmd, removeCmd, flushCmd)
	rootCmd.AddCommand(configCmd, aliasCmd)

	return rootCmd
}

func (a *app) runtime(migrateDelay time.Duration) (*config.RuntimeConfig, error) {
	return config.NewRuntime(a.timeout, migrateDelay, a.verbose, a.metrics)
}

func (a *app) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

func (a *app) logger(rc *config.RuntimeConfig) *slog.Logger {
	level := slog.LevelInfo
	if rc.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
}

// openService connects to the configured store and builds the alias service on top of it
func (a *app) openService(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.AliasService, *metrics.Recorder, error) {
	store, err := sqlstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Debug("connected to database", "dialect", store.Dialect().Name)

	generator := shortener.NewTimeGenerator()
	log.Debug("using alias generator", "type", generator.Type())

	recorder := metrics.NewRecorder()
	svc := service.NewAliasService(store, generator, recorder, log, service.DefaultOptions())

	return svc, recorder, nil
}

func (a *app) finish(svc service.AliasService, recorder *metrics.Recorder, rc *config.RuntimeConfig, log *slog.Logger) {
	if err := svc.Close(); err != nil {
		log.Error("failed to close service", "error", err)
	}
	if rc.Metrics {
		if err := recorder.WriteText(a.errOut); err != nil {
			log.Error("failed to write metrics", "error", err)
		}
	}
}

type aliasFunc func(ctx context.Context, cmd *cobra.Command, commands *cli.Commands, args []string) error

// withCommands loads the config, opens the store under the operation timeout
// and hands fn a ready set of alias commands
func (a *app) withCommands(fn aliasFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rc, err := a.runtime(0)
		if err != nil {
			return err
		}
		path, err := a.path()
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		log := a.logger(rc)
		ctx, cancel := context.WithTimeout(cmd.Context(), rc.Timeout)
		defer cancel()

		svc, recorder, err := a.openService(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.finish(svc, recorder, rc, log)

		return fn(ctx, cmd, cli.NewCommands(svc, cfg.Domain, a.out), args)
	}
}

func (a *app) runConfig(cmd *cobra.Command, _ []string) error {
	rc, err := a.runtime(a.migrateDelay)
	if err != nil {
		return err
	}
	path, err := a.path()
	if err != nil {
		return err
	}

	databaseURL, domainName := a.databaseURL, a.domain
	prompter := cli.NewPrompter(a.in, a.out)
	if databaseURL == "" {
		if databaseURL, err = prompter.Ask(databaseURLPrompt); err != nil {
			return fmt.Errorf("please provide a correct connection string: %w", err)
		}
	}
	if domainName == "" {
		if domainName, err = prompter.Ask(domainPrompt); err != nil {
			return fmt.Errorf("please provide a correct domain e.g. foo.com: %w", err)
		}
	}

	cfg, err := config.New(databaseURL, domainName)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Config saved to %s\n", path)

	log := a.logger(rc)
	if rc.MigrateDelay > 0 {
		log.Debug("waiting before schema setup", "delay", rc.MigrateDelay)
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(rc.MigrateDelay):
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rc.Timeout)
	defer cancel()

	svc, recorder, err := a.openService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.finish(svc, recorder, rc, log)

	if err := svc.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Database is ready.")

	return nil
}

func run() error {
	// A missing .env file is fine; explicit environment still applies.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	return newRootCmd(a).ExecuteContext(ctx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
