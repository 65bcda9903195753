package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/infrastructure/store"
	"github.com/vsinha/prodplan/pkg/interfaces/httpapi"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP planning API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stop, err := startTracing(cfg)
			if err != nil {
				return err
			}
			defer stop()

			var history *store.Store
			if cfg.Store.DSN != "" {
				history, err = openStore(cmd.Context(), cfg.Store.DSN)
				if err != nil {
					return err
				}
				defer history.Close()
			}

			handler, err := httpapi.New(httpapi.Config{
				Settings: cfg,
				Store:    history,
				Logger:   newLogger(cmd.ErrOrStderr()),
				Version:  Version,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving prodplan API on http://%s/v1 (OpenAPI at /v1/openapi.json)\n", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
