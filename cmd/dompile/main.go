package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/dompile/cli/internal/build"
	"github.com/dompile/cli/internal/config"
	"github.com/dompile/cli/internal/metrics"
	"github.com/dompile/cli/internal/server"
	"github.com/dompile/cli/internal/state"
	"github.com/dompile/cli/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"dompile.yaml"`
	Dir     string `short:"C" help:"Project directory" default:"."`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output      string `short:"o" help:"Override the output directory"`
		Incremental bool   `short:"i" help:"Skip pages whose sources are unchanged"`
		Clean       bool   `help:"Remove the output directory before building"`
	} `cmd:"" help:"Build the site"`

	Serve struct {
		Port int `short:"p" help:"Port to listen on"`
	} `cmd:"" help:"Build, then serve with live reload and rebuild on change"`

	Init struct {
		Force bool `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a starter site in the project directory"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// deploy-specific overrides (DOMPILE_*) come from the environment
	_ = godotenv.Load(filepath.Join(CLI.Dir, ".env"))

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "serve":
		err = runServe()
	case "init":
		err = build.Scaffold(CLI.Dir, CLI.Init.Force)
	case "version":
		fmt.Println(version.String())
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(CLI.Dir, CLI.Config))
	if err != nil {
		return nil, err
	}
	if CLI.Build.Output != "" {
		cfg.Output = CLI.Build.Output
	}
	if CLI.Serve.Port != 0 {
		cfg.Server.Port = CLI.Serve.Port
	}
	return cfg, nil
}

func newDriver(cfg *config.Config) (*build.Driver, error) {
	driver, err := build.NewDriver(cfg, CLI.Dir)
	if err != nil {
		return nil, err
	}

	cachePath := cfg.CacheFile
	if !filepath.IsAbs(cachePath) {
		cachePath = filepath.Join(CLI.Dir, cachePath)
	}
	store, err := state.Open(cachePath)
	if err != nil {
		slog.Warn("cache unavailable, building without it", "error", err)
		return driver, nil
	}
	return driver.WithStore(store), nil
}

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}

	if CLI.Build.Clean {
		if err := os.RemoveAll(driver.Roots().Output); err != nil {
			return err
		}
	}

	ctx := context.Background()
	var result *build.Result
	if CLI.Build.Incremental {
		result, err = driver.BuildIncremental(ctx)
	} else {
		result, err = driver.Build(ctx)
	}
	if err != nil {
		return err
	}
	for _, f := range result.Failures {
		slog.Error("page failed", "page", f.Page, "error", f.Err)
	}
	if !result.OK() {
		return fmt.Errorf("%d page(s) failed", len(result.Failures))
	}
	return nil
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}
	driver = driver.WithMetrics(m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// serve whatever the initial build produces; failed pages show up
	// as missing or degraded output, not a dead server
	if result, err := driver.Build(ctx); err != nil {
		return err
	} else if !result.OK() {
		for _, f := range result.Failures {
			slog.Warn("page failed", "page", f.Page, "error", f.Err)
		}
	}

	srv := server.New(server.Options{
		Addr:      fmt.Sprintf(":%d", cfg.Server.Port),
		OutputDir: driver.Roots().Output,
		WatchDir:  driver.Roots().Source,
		Metrics:   m,
	}, func(ctx context.Context, changed []string) error {
		result, err := driver.Rebuild(ctx, changed)
		if err != nil {
			return err
		}
		for _, f := range result.Failures {
			slog.Warn("page failed", "page", f.Page, "error", f.Err)
		}
		return nil
	})

	return srv.Run(ctx)
}
