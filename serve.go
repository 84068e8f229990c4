package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rahil-15/MediBot2.0/api"
	"github.com/Rahil-15/MediBot2.0/chat"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page and the /get endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.HTTPAddr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

// runServe builds the pipeline once and serves until interrupted. A failed
// startup stage does not stop the server; /get answers 503 instead.
func runServe(parent context.Context, a *app) error {
	ctx, stop := signalContext(parent)
	defer stop()

	pipeline := chat.Bootstrap(ctx, a.cfg, chat.DefaultStages(), a.logger)
	defer func() {
		if err := pipeline.Close(); err != nil {
			a.logger.Printf("close vector index: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           api.New(pipeline, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("MediBot listening on http://%s (ready=%t)", a.cfg.HTTPAddr, pipeline.Readiness().Ready())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
