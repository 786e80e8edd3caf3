package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/05nelsonm/zap-desktop/internal/node/api"
	"github.com/05nelsonm/zap-desktop/internal/node/config"
	"github.com/05nelsonm/zap-desktop/internal/node/controller"
	"github.com/05nelsonm/zap-desktop/internal/node/lnd"
	"github.com/05nelsonm/zap-desktop/internal/node/logging"
	"github.com/05nelsonm/zap-desktop/internal/node/pubsub"
	"github.com/05nelsonm/zap-desktop/internal/node/store"
)

var log = logging.NewLogger()

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}

	db, err := store.Open(cfg.StorePath())
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Err(err).Msg("error closing store")
		}
	}()

	events := pubsub.NewSimpleChannel[lnd.Event](256)
	publisher := pubsub.NewSimplePublisher(events)

	notifier := api.NewWSNotifier()
	defer notifier.Close()

	ctrl := controller.NewController(cfg, db, notifier, controller.DefaultDeps(publisher, os.Exit))
	events.AddSubscriber(ctrl)
	go events.Listen()
	defer events.Close()

	routes := []api.Route{
		api.NewVersionHandler(),
		api.NewHealthHandler(),
		notifier,
		controller.NewStartOnboardingRoute(ctrl),
		controller.NewOnboardRoute(ctrl),
		controller.NewUnlockRoute(ctrl),
		controller.NewInvokeRoute(ctrl),
		controller.NewStatusRoute(ctrl),
	}

	router := api.NewRouter(routes)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf("localhost:%s", cfg.APIPort()),
		Handler: router,
	}

	// ctx.Done() returns when SIGINT/SIGTERM arrives or cancel() is
	// called. Calling cancel() unregisters the signal trapping.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// egCtx is cancelled if any function called with eg.Go() returns an error.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Msgf("Starting zapd API server at %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("api server closed abnormally: %w", err)
		}
		return nil
	})

	select {
	case <-egCtx.Done():
		log.Err(fmt.Errorf("sub-service errored, shutting down zapd: %v", egCtx.Err()))
		cancel()
	case <-ctx.Done():
		log.Info().Msg("Interrupt signal received, gracefully closing zapd")
	}

	// The supervised node goes first: the graceful stop RPC needs the
	// connections the controller still holds.
	if err := ctrl.Terminate(context.Background()); err != nil {
		log.Err(err).Msg("error terminating node session")
	}

	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Err(err).Msg("error on api server shutdown")
	}

	if err := eg.Wait(); err != nil {
		log.Err(err).Msg("received error on eg.Wait()")
	}
}
