package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaahanlabs/pitstop/internal/app"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	"github.com/vaahanlabs/pitstop/pkg/config"
	"github.com/vaahanlabs/pitstop/pkg/observability"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker",
	Long: `Run the background worker.

The worker publishes outbox events to RabbitMQ, prunes published messages,
rejects pending subscription orders that ran out their acceptance window,
and rolls plan states over their billing boundary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		processor := container.OutboxProcessor
		logger.Info("starting outbox processor",
			"poll_interval", cfg.OutboxPollInterval,
			"batch_size", cfg.OutboxBatchSize,
			"max_retries", cfg.OutboxMaxRetries,
		)
		if err := processor.Start(ctx); err != nil {
			return err
		}

		// Cleanup needs the concrete repository for retention pruning.
		outboxRepo := outbox.NewPostgresRepository(container.DB)
		cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
		defer cleanupTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-cleanupTicker.C:
					deleted, err := outboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
					if err != nil {
						logger.Error("outbox cleanup failed", "error", err)
						continue
					}
					if deleted > 0 {
						logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
					}
				}
			}
		}()

		sweepTicker := time.NewTicker(cfg.SweepInterval)
		defer sweepTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-sweepTicker.C:
					now := time.Now()
					rejected, err := observability.TimeOperationResult(ctx, nil, container.Metrics, "order_reject_sweep", func() (int, error) {
						return container.RejectSweep.Run(ctx, now)
					})
					if err != nil {
						logger.Error("order reject sweep failed", "error", err)
					} else if rejected > 0 {
						container.Metrics.Counter(observability.MetricOrdersRejected, int64(rejected))
						logger.Info("order reject sweep completed", "rejected", rejected)
					}

					renewed, err := observability.TimeOperationResult(ctx, nil, container.Metrics, "renewal_sweep", func() (int, error) {
						return container.ApplyDueRenewals.Handle(ctx, now)
					})
					if err != nil {
						logger.Error("renewal sweep failed", "error", err)
					} else if renewed > 0 {
						container.Metrics.Counter(observability.MetricSubscriptionsRenewed, int64(renewed))
						logger.Info("renewal sweep completed", "renewed", renewed)
					}
				}
			}
		}()

		if cfg.WorkerHealthAddr != "" {
			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status":  "ok",
					"running": processor.IsRunning(),
				})
			})

			mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
				checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
				defer cancel()
				if err := container.DB.Ping(checkCtx); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"status": "not_ready",
						"error":  err.Error(),
					})
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
			})

			healthSrv := &http.Server{
				Addr:              cfg.WorkerHealthAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
				if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("health server error", "error", err)
				}
			}()

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := healthSrv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("health server shutdown error", "error", err)
				}
			}()
		}

		<-ctx.Done()
		logger.Info("shutting down worker")
		processor.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
