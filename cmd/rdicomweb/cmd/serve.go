package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rdicomweb/config"
	"rdicomweb/index"
	"rdicomweb/web"
)

// NewServeCmd starts the DICOMweb HTTP server until SIGINT/SIGTERM.
func NewServeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the DICOMweb HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			root, _ := cmd.Flags().GetString("root")
			addr, _ := cmd.Flags().GetString("addr")
			driver, _ := cmd.Flags().GetString("driver")
			dsn, _ := cmd.Flags().GetString("dsn")
			return runServe(ctx, configPath, root, addr, driver, dsn)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "rdicomweb.yaml", "path to the YAML configuration file")
	pf.String("root", ".", "directory of DICOM files STOW writes into and QIDO reads from")
	pf.String("addr", ":8080", "HTTP listen address")
	pf.String("driver", "sqlite3", "index store driver: sqlite3, pgx, or csv")
	pf.String("dsn", "rdicomweb.db", "index store DSN (sqlite3/pgx) or CSV file path (csv)")
	return cmd
}

func runServe(ctx context.Context, configPath, root, addr, driver, dsn string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	store, err := openStore(driver, dsn, cfg)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer store.Close() //nolint:errcheck // best-effort close on shutdown

	srv := web.NewServer(cfg, store, root, slog.Default())
	httpServer := &http.Server{Addr: addr, Handler: srv}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "serving DICOMweb", "addr", addr, "root", root, "driver", driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openStore(driver, dsn string, cfg *config.Config) (index.Store, error) {
	columns := cfg.AllColumns()
	switch driver {
	case "csv":
		return index.NewCSVStore(dsn, columns)
	case "sqlite3", "pgx":
		return index.OpenSQLStore(driver, dsn, cfg.TableName, columns)
	default:
		return nil, fmt.Errorf("unknown index store driver %q", driver)
	}
}
