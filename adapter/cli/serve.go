package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaahanlabs/pitstop/adapter/api"
	"github.com/vaahanlabs/pitstop/internal/app"
	"github.com/vaahanlabs/pitstop/pkg/config"
	"github.com/vaahanlabs/pitstop/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
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

		health := observability.NewHealthRegistry()
		health.Register("postgres", observability.DatabaseHealthChecker(func(checkCtx context.Context) error {
			return container.DB.Ping(checkCtx)
		}))
		if container.RedisClient != nil {
			health.Register("redis", observability.RedisHealthChecker(func(checkCtx context.Context) error {
				return container.RedisClient.Ping(checkCtx).Err()
			}))
		}

		handlers := api.Handlers{
			Catalog: api.NewCatalogHandler(container.CatalogService, logger),
			Users:   api.NewUserHandler(container.UserRepo, logger),
			Subscriptions: api.NewSubscriptionHandler(api.SubscriptionHandlerConfig{
				Purchase:      container.PurchaseHandler,
				Upgrade:       container.UpgradeHandler,
				Renew:         container.RenewHandler,
				VerifyPur:     container.VerifyPurchaseHandler,
				VerifyUpg:     container.VerifyUpgradeHandler,
				VerifyRenewal: container.VerifyRenewalHandler,
				PlanState:     container.PlanStateQuery,
				Logger:        logger,
			}),
			Orders: api.NewOrderHandler(api.OrderHandlerConfig{
				CreateOneTime:      container.CreateOneTimeOrderHandler,
				CreateSubscription: container.CreateSubscriptionOrderHandler,
				VerifyPayment:      container.VerifyPaymentHandler,
				Accept:             container.AcceptOrderHandler,
				OrderQuery:         container.OrderQuery,
				Logger:             logger,
			}),
		}

		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = cfg.APIAddr
		server := api.NewServer(serverCfg, handlers, health, logger)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
