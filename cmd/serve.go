package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring API server",
	Long: `Serve the pricing engine over HTTP. Scan and history endpoints are
enabled when a marketplace and a history store are configured; the pure
calculation endpoints are always available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := []api.Option{api.WithCORSOrigins(cfg.Server.CORSOrigins)}

		engine, err := initEngine()
		if err != nil {
			return err
		}

		if env, err := initScanEnv(ctx); err != nil {
			zap.L().Warn("scan endpoints disabled", zap.Error(err))
		} else {
			defer env.Close()
			opts = append(opts, api.WithSession(env.Session))
			if env.Store != nil {
				opts = append(opts, api.WithHistory(env.Store))
			}
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePortOrConfig()),
			Handler:           api.New(engine, opts...).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func servePortOrConfig() int {
	if servePort != 0 {
		return servePort
	}
	return cfg.Server.Port
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
