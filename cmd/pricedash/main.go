// Command pricedash serves a product price dashboard backed by PostgreSQL.
//
// Usage:
//
//	pricedash serve  [--config path] [--addr :8080]
//	pricedash import FILE [--config path]
//
// Environment (a .env file in the working directory is loaded first):
//
//	POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DB, DB_HOST, DB_PORT, DB_SSLMODE
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jboursiquot/pricedash"
	"github.com/jboursiquot/pricedash/internal/server"
	"github.com/jboursiquot/pricedash/internal/upload"
)

type globalFlags struct {
	configPath string
	envFile    string
	logJSON    bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("pricedash failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "pricedash",
		Short:         "Product price dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setup(g)
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "log JSON instead of console output")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(g), newImportCmd(g))
	return root
}

func setup(g *globalFlags) error {
	if !g.logJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(g.logLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	if err := godotenv.Load(g.envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", g.envFile, err)
		}
		log.Debug().Str("file", g.envFile).Msg("no dotenv file, using process environment")
	}
	return nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := pricedash.LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override (e.g. :8080)")
	return cmd
}

func serve(ctx context.Context, cfg *pricedash.Config) error {
	source := pricedash.NewSource(cfg)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.NewServer(cfg, source).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("db_host", cfg.Database.Host).
			Str("db_name", cfg.Database.Name).
			Msg("pricedash started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("stopped")
	return nil
}

func newImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load products from an .xlsx or .csv file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := pricedash.LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			return importFile(cmd.Context(), pricedash.NewSource(cfg), args[0])
		},
	}
}

type importer interface {
	Import(ctx context.Context, t pricedash.ProductTable) (int, error)
}

func importFile(ctx context.Context, dst importer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := upload.Parse(path, f)
	if err != nil {
		return err
	}
	n, err := dst.Import(ctx, table)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Int("rows", n).Msg("products imported")
	return nil
}
