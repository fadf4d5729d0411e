package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/config"
	"github.com/apps-seb/lotwarp/pkg/logging"
	"github.com/apps-seb/lotwarp/pkg/store"
)

var (
	configFile string
	project    string
	storeDir   string
	driver     string
	verbose    bool
)

// app holds what every subcommand needs once flags and config are merged.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	store  store.Store
	loader assets.Loader
	close  []func()
}

var env app

var rootCmd = &cobra.Command{
	Use:   "lotwarp",
	Short: "Perspective overlay compositor for lot maps",
	Long: `lotwarp places lot images onto a master map with four draggable corners
and renders the result with a piecewise perspective warp.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		for i := len(env.close) - 1; i >= 0; i-- {
			env.close[i]()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVarP(&project, "project", "p", "", "Project id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Directory of the file store (overrides config)")
	rootCmd.PersistentFlags().StringVar(&driver, "store", "", "Store driver: file, postgres or memory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose console output")

	rootCmd.AddCommand(renderCmd, hitCmd, masterCmd, lotCmd, dragCmd, removeCmd,
		inspectCmd, projectsCmd, configCmd, dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if project != "" {
		cfg.Project = project
	}
	if storeDir != "" {
		cfg.Store.Dir = storeDir
	}
	if driver != "" {
		cfg.Store.Driver = driver
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	consoleLevel := cfg.Log.ConsoleLevel
	if verbose {
		consoleLevel = "debug"
	}
	logger, cleanup, err := logging.Setup(logging.Options{
		File:         cfg.Log.File,
		Level:        cfg.Log.Level,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
		MaxBackups:   cfg.Log.MaxBackups,
		ConsoleLevel: consoleLevel,
	})
	if err != nil {
		return err
	}

	env = app{cfg: cfg, log: logger}
	env.close = append(env.close, cleanup)
	return nil
}

// openStore connects the configured store. Commands that do not touch
// projects never call it.
func openStore(ctx context.Context) (store.Store, error) {
	if env.store != nil {
		return env.store, nil
	}
	st, closeFn, err := store.Open(ctx, env.cfg.Store.Driver, env.cfg.Store.Dir, env.cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	env.close = append(env.close, func() {
		if err := closeFn(); err != nil {
			env.log.Warn("failed to close store", "error", err)
		}
	})
	env.store = st
	env.log.Debug("store opened", "driver", env.cfg.Store.Driver)
	return env.store, nil
}

// openLoader builds the cached file/http loader.
func openLoader() (assets.Loader, error) {
	if env.loader != nil {
		return env.loader, nil
	}
	timeout := time.Duration(env.cfg.Assets.TimeoutSeconds) * time.Second
	cached, err := assets.NewCachedLoader(assets.NewDefaultLoader(env.cfg.Assets.Root, timeout), env.cfg.Assets.CacheSize)
	if err != nil {
		return nil, err
	}
	env.loader = cached
	return cached, nil
}
