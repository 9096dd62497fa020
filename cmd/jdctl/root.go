package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jdcrawler-dashboard/internal/config"
	"jdcrawler-dashboard/internal/domain/ports/gateway"
	"jdcrawler-dashboard/internal/infra/backend"
	"jdcrawler-dashboard/internal/infra/logging"
	"jdcrawler-dashboard/internal/infra/querycache"
	"jdcrawler-dashboard/internal/usecase"
)

// gatewayFactory builds the backend gateway; tests swap in an in-memory one.
type gatewayFactory func(cfg *config.Config, logger *zerolog.Logger) (gateway.Gateway, error)

func httpGateway(cfg *config.Config, logger *zerolog.Logger) (gateway.Gateway, error) {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
}

// app is what every subcommand runs against. One command is one cache lifetime.
type app struct {
	cfg     *config.Config
	log     *zerolog.Logger
	cache   *querycache.Cache
	reader  *usecase.QueryService
	mut     *usecase.MutationCoordinator
	tracker *usecase.AnalysisTracker
	out     io.Writer
	json    bool
}

type rootFlags struct {
	configPath string
	baseURL    string
	jsonOut    bool
	verbose    bool
}

func newRootCmd(newGateway gatewayFactory) *cobra.Command {
	if newGateway == nil {
		newGateway = httpGateway
	}
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:           "jdctl",
		Short:         "Operate the jdcrawler backend from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(flags)
			if err != nil {
				return err
			}
			lc := cfg.Log
			if !flags.verbose {
				lc.Level = "warn"
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), lc, true)

			gw, err := newGateway(cfg, logger)
			if err != nil {
				return fmt.Errorf("backend: %w", err)
			}
			cache := querycache.New(querycache.WithLogger(logger), querycache.WithContext(cmd.Context()))
			reader := usecase.NewQueryService(gw, cache, cfg.Backend.PageSize, logger)
			mut := usecase.NewMutationCoordinator(gw, cache, logger)

			*a = app{
				cfg:     cfg,
				log:     logger,
				cache:   cache,
				reader:  reader,
				mut:     mut,
				tracker: usecase.NewAnalysisTracker(reader, mut, cfg.Sync.AnalysisRecheckInterval, cfg.Sync.AnalysisMaxRechecks, logger),
				out:     cmd.OutOrStdout(),
				json:    flags.jsonOut,
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cache != nil {
				a.cache.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config.yaml", "path to YAML config file")
	pf.StringVar(&flags.baseURL, "backend", "", "crawler backend base URL (overrides config)")
	pf.BoolVar(&flags.jsonOut, "json", false, "print JSON instead of tables")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		jobsCmd(a),
		jobCmd(a),
		bookmarkCmd(a),
		hideCmd(a),
		analyzeCmd(a),
		keywordsCmd(a),
		crawlCmd(a),
		crawlAllCmd(a),
		statusCmd(a),
		statsCmd(a),
		profileCmd(a),
		markReadCmd(a),
	)
	return root
}

// loadCLIConfig reads the config file when present; --backend alone is enough.
func loadCLIConfig(f rootFlags) (*config.Config, error) {
	b, err := os.ReadFile(f.configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.ParseWith(b, false, func(c *config.Config) {
		if f.baseURL != "" {
			c.Backend.BaseURL = f.baseURL
		}
	})
}
