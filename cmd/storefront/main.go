// Command storefront is a terminal client for the Fake Store shop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/luther0929/Fake-Store/api"
	"github.com/luther0929/Fake-Store/catalog"
	"github.com/luther0929/Fake-Store/config"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
	client  *api.Client
	catalog *catalog.Cache
}

type rootFlags struct {
	configPath string
	token      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Browse the Fake Store, manage a cart and place orders",
		Long: `storefront talks to the Fake Store catalog and the shop backend.

The session token from signin is kept in the config file and reused by the
cart, checkout and orders commands. Cart edits are synced to the server
before each command exits.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $STOREFRONT_CONFIG or the user config dir)")
	root.PersistentFlags().StringVar(&flags.token, "token", "", "session token (overrides the stored one)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newProductsCmd(a),
		newCategoriesCmd(a),
		newProductCmd(a),
		newSignInCmd(a),
		newSignUpCmd(a),
		newSignOutCmd(a),
		newProfileCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
		newAgentCmd(a),
	)
	return root
}

func (a *app) init(flags *rootFlags) error {
	a.cfgPath = flags.configPath
	if a.cfgPath == "" {
		a.cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if flags.token != "" {
		cfg.Session.Token = flags.token
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Logging.Level, flags.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	client, err := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger.Named("api")),
	)
	if err != nil {
		return err
	}
	a.client = client
	a.catalog = catalog.NewCache(
		catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithLogger(logger.Named("catalog"))),
		logger.Named("catalog"),
	)
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// saveToken stores token in the config file so later commands reuse it.
func (a *app) saveToken(token string) error {
	stored, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	stored.Session.Token = token
	a.cfg.Session.Token = token
	return stored.Save(a.cfgPath)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
