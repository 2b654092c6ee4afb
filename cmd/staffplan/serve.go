package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/staffplan/api"
	"github.com/warp/staffplan/gradeseed"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		port     int
		scenario string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Example: `  staffplan serve --port 3000
  staffplan serve --db :memory: --scenario research-group`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			return a.serve(cmd.Context(), scenario)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (overrides STAFFPLAN_PORT)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "load a demo scenario at startup (resets the database)")
	return cmd
}

func (a *app) serve(ctx context.Context, scenario string) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if a.cfg.GradeSeed != "" {
		table, err := gradeseed.LoadFile(a.cfg.GradeSeed)
		if err != nil {
			return err
		}
		values, err := table.GradeValues()
		if err != nil {
			return err
		}
		if _, err := gradeseed.Apply(ctx, store, values, a.log); err != nil {
			return err
		}
	}
	if scenario != "" {
		if err := api.ApplyScenario(ctx, store, scenario, a.log); err != nil {
			return err
		}
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	handler := api.NewHandler(store, a.log)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: a.cfg.CORSOrigins,
		MetricsPath: metricsPath,
	})

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"addr":    server.Addr,
			"db":      a.cfg.DBPath,
			"metrics": metricsPath,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}
