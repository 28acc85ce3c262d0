package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/engine"
)

var metricsAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Address for the Prometheus /metrics endpoint")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Train, then retrain periodically and expose /metrics and /healthz",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		a, err := openApp(ctx, engine.WithMetrics(engine.NewMetrics(reg)))
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Train(ctx); err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", healthHandler(a.engine))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.logger.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			err := a.engine.RunRetrainLoop(gctx, a.cfg.RetrainInterval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		return g.Wait()
	},
}

// healthHandler 在模型可用时返回 200 与模型概况，尚未训练时返回 503。
func healthHandler(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		m, err := e.Current()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_trained"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"model_version": m.Version,
			"books":         len(m.ItemIDs()),
			"ratings":       m.RatingCount,
			"trained_at":    m.TrainedAt,
		})
	}
}
