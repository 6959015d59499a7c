package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/talenttrack/internal/filestore"
	"github.com/koustreak/talenttrack/internal/filestore/minio"
	"github.com/koustreak/talenttrack/internal/logger"
	"github.com/koustreak/talenttrack/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect, synchronize the schema and serve the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe returns nil after a signal-driven shutdown that closed the
// database cleanly, including a signal received during startup.
func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := a.log.With().Str("version", version).Logger()
	log.Info("starting TalentTrack")

	if err := prepare(ctx, a, log); err != nil {
		if ctx.Err() != nil {
			return shutdown(cmd.OutOrStdout(), a, log, nil)
		}
		_ = a.close()
		return err
	}

	files, err := openFiles(ctx, a.cfg.FileStore)
	if err != nil {
		log.ErrorWith("document storage unavailable, downloads disabled", err, nil)
	}
	if files != nil {
		defer files.Close()
	}

	srv := server.New(server.Options{
		Manager:     a.db,
		Files:       files,
		PresignTTL:  a.cfg.FileStore.PresignTTL,
		ErrorLog:    a.errlog,
		Logger:      a.log,
		Development: a.cfg.Development(),
		Version:     version,
	})
	runErr := srv.Run(ctx, a.cfg.Server)
	if runErr != nil {
		log.ErrorWith("http server failed", runErr, nil)
	}
	return shutdown(cmd.OutOrStdout(), a, log, runErr)
}

// prepare connects and synchronizes the schema.
func prepare(ctx context.Context, a *app, log *logger.Logger) error {
	if err := a.db.Authenticate(ctx); err != nil {
		log.ErrorWith("unable to connect to the database", err, nil)
		return err
	}
	if err := a.db.Sync(ctx); err != nil {
		log.ErrorWith("unable to synchronize the database schema", err, nil)
		return err
	}
	return nil
}

// shutdown announces the stop and closes the app. A close failure wins
// over cause.
func shutdown(w io.Writer, a *app, log *logger.Logger, cause error) error {
	fmt.Fprintln(w, "Shutting down TalentTrack, closing database connection...")
	if err := a.close(); err != nil {
		log.ErrorWith("error during shutdown", err, nil)
		return err
	}
	return cause
}

// openFiles connects to the document store. A nil store with a nil error
// means storage is switched off.
func openFiles(ctx context.Context, cfg filestore.Config) (filestore.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	d, err := minio.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := d.EnsureBucket(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
