package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-marketplace/internal/data/repository"
	"task-marketplace/internal/wire"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, worker pool and reconciler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.log.Info("Starting application",
		zap.String("app", rt.config.App.Name),
		zap.String("port", rt.config.App.Port),
		zap.Bool("debug", rt.config.App.Debug),
	)

	repos := repository.NewRepository(rt.db, rt.log)

	app, err := wire.Wiring(ctx, repos, rt.config, rt.log)
	if err != nil {
		return err
	}
	defer app.Close()

	server := APIServer(app.Router, rt.config.App.Port)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Pool.Run(gctx)
	})

	app.Reconciler.Start(gctx)

	g.Go(func() error {
		rt.log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		rt.log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.config.App.ShutdownTimeout)
		defer cancel()

		app.Reconciler.Stop()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// APIServer builds the HTTP server for route on port.
func APIServer(route *chi.Mux, port string) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           route,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
