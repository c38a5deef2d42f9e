package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"address-book/internal/api"
	"address-book/internal/constants"
	"address-book/internal/directory"
	"address-book/internal/seed"
	"address-book/internal/shell"
	"address-book/internal/store"
	"address-book/pkg/config"
	"address-book/pkg/container"
	"address-book/pkg/health"
	"address-book/pkg/logging"
	"address-book/pkg/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags are the command-line overrides applied on top of the environment.
type flags struct {
	envFile     string
	logLevel    string
	logFormat   string
	seedFile    string
	countryCode string
	demo        bool
	port        string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "address-book",
		Short:        "In-memory contact directory with fuzzy Arabic/English name search",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", "", "Extra .env file to load (process environment wins).")
	pf.StringVar(&f.logLevel, "log-level", "", "Logging level: trace|debug|info|warn|error|fatal.")
	pf.StringVar(&f.logFormat, "log-format", "", "Logging format: text|json.")
	pf.StringVar(&f.seedFile, "seed", "", "YAML file of contacts to load at start-up.")
	pf.StringVar(&f.countryCode, "country-code", "", "Rewrite 0XXXXXXXXX numbers to <code>XXXXXXXXX.")
	pf.BoolVar(&f.demo, "demo", false, "Load the built-in sample contacts.")

	root.AddCommand(&cobra.Command{
		Use:   "shell",
		Short: "Interactive console menu (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, f)
		},
	})

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the directory over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	serve.Flags().StringVar(&f.port, "port", "", "HTTP port (overrides PORT).")
	root.AddCommand(serve)

	return root
}

// buildContainer registers the application's providers. quiet lowers the
// default log level so an interactive session is not interleaved with info logs.
func buildContainer(cmd *cobra.Command, f *flags, quiet bool) *container.Container {
	c := container.New()

	_ = container.Provide(c, func(*container.Container) (*config.Config, error) {
		cfg, err := config.LoadEnvFile(f.envFile)
		if err != nil {
			return nil, err
		}
		applyFlags(cmd, cfg, f)
		if quiet && !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
			cfg.LogLevel = "warn"
		}
		return cfg, cfg.Validate()
	})

	_ = container.Provide(c, func(c *container.Container) (*logging.Logger, error) {
		cfg, err := container.Resolve[*config.Config](c)
		if err != nil {
			return nil, err
		}
		return logging.NewLogger(logging.LogConfig{
			Level:       logging.ParseLevel(cfg.LogLevel),
			Format:      cfg.LogFormat,
			Output:      cfg.LogOutput,
			EnableAsync: cfg.LogAsync,
		})
	})

	_ = container.Provide(c, func(*container.Container) (*metrics.Registry, error) {
		return metrics.Default, nil
	})

	_ = container.Provide(c, func(c *container.Container) (*directory.Service, error) {
		cfg, err := container.Resolve[*config.Config](c)
		if err != nil {
			return nil, err
		}
		logger, err := container.Resolve[*logging.Logger](c)
		if err != nil {
			return nil, err
		}
		svc := directory.NewService(store.New(), logger, container.MustResolve[*metrics.Registry](c),
			directory.Options{CountryCode: cfg.PhoneCountryCode})
		return svc, loadSeeds(cmd.Context(), svc, cfg, f, logger)
	})

	return c
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f *flags) {
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if cmd.Flags().Changed("seed") {
		cfg.SeedFile = f.seedFile
	}
	if cmd.Flags().Changed("country-code") {
		cfg.PhoneCountryCode = f.countryCode
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
}

func loadSeeds(ctx context.Context, svc *directory.Service, cfg *config.Config, f *flags, logger *logging.Logger) error {
	if f.demo {
		file, err := seed.LoadFS(ConfigFiles(), "sample_contacts.yaml")
		if err != nil {
			return err
		}
		seed.Apply(ctx, svc, file, logger)
	}
	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		res := seed.Apply(ctx, svc, file, logger)
		for _, msg := range res.Errors {
			logger.Warn("seed entry rejected", logging.String("detail", msg))
		}
	}
	return nil
}

func runShell(cmd *cobra.Command, f *flags) error {
	c := buildContainer(cmd, f, true)
	svc, err := container.Resolve[*directory.Service](c)
	if err != nil {
		return err
	}
	logger := container.MustResolve[*logging.Logger](c)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := shell.New(svc, cmd.InOrStdin(), cmd.OutOrStdout(), shell.IsTerminal(os.Stdin), logger)
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, f *flags) error {
	c := buildContainer(cmd, f, false)
	svc, err := container.Resolve[*directory.Service](c)
	if err != nil {
		return err
	}
	cfg := container.MustResolve[*config.Config](c)
	logger := container.MustResolve[*logging.Logger](c)
	defer logger.Close()

	logger.Info("Starting address book", logging.Any("config", cfg.GetConfigSummary()))

	hm := health.NewHealthManager(health.DefaultHealthConfig(), logger)
	hm.RegisterChecker(health.NewHealthCheckFunc("directory", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:   health.HealthStatusHealthy,
			Metadata: map[string]interface{}{"contacts": svc.Count()},
		}
	}))

	opts := api.Options{Logger: logger, Health: hm}
	if cfg.MetricsEnabled {
		opts.Metrics = container.MustResolve[*metrics.Registry](c)
		opts.MetricsPath = cfg.MetricsPath
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(svc, opts),
		ReadTimeout:  constants.HTTPReadTimeoutDefault,
		WriteTimeout: constants.HTTPWriteTimeoutDefault,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.String("addr", server.Addr), logging.Int("contacts", svc.Count()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeoutDefault)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}
	logger.Info("Application shutdown complete")
	return nil
}
