package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	stepperhttp "github.com/aretw0/stepper/pkg/adapters/http"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/session"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the wizard as a JSON API. Navigation gates are answered by request
parameters (?force=true on next, ?decision= on jump).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}
		if err := serve(cmd.Context(), cfg); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides the configuration)")
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := cli.CreateLogger(cfg.Log)

	stack, err := cli.NewStack(cfg, logger, ports.ContextConfirmer{})
	if err != nil {
		return err
	}
	defer stack.Close()

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if stack.Cache.Locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(stack.Cache.Locker), session.WithLockTTL(cfg.Cache.Redis.LockTTL))
	}
	sessions := session.ForEngine(stack.Engine, sessionOpts...)

	serverOpts := []stepperhttp.Option{stepperhttp.WithLogger(logger)}
	servers := []*http.Server{}
	if stack.Metrics != nil {
		if cfg.Metrics.Addr == "" {
			serverOpts = append(serverOpts, stepperhttp.WithMetrics(stack.Metrics.Handler()))
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", stack.Metrics.Handler())
			servers = append(servers, &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
		}
	}
	api := &http.Server{
		Addr:              cfg.Listen,
		Handler:           stepperhttp.NewHandler(sessions, serverOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers = append([]*http.Server{api}, servers...)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("graceful shutdown of %s: %w", srv.Addr, errors.Join(err, srv.Close())))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
