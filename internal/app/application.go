// Package app wires the gateway's dependencies and manages the HTTP server
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ghostspeak/ghostgate/internal/config"
	"github.com/ghostspeak/ghostgate/internal/gateway"
	"github.com/ghostspeak/ghostgate/internal/httpapi"
	"github.com/ghostspeak/ghostgate/internal/ledger"
	"github.com/ghostspeak/ghostgate/internal/payment"
	"github.com/ghostspeak/ghostgate/internal/pricing"
	"github.com/ghostspeak/ghostgate/internal/reputation"
	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// Application owns the wired gateway and its HTTP server.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	gw      *gateway.Service
	sweeper *reputation.Sweeper
	server  *http.Server
}

// New constructs an application from configuration.
func New(cfg *config.Config) (*Application, error) {
	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, "ghostgate")

	reader, err := ledger.NewClient(ledger.Config{
		RPCURL:  cfg.Ledger.RPCURL,
		Timeout: cfg.Ledger.Timeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger client: %w", err)
	}

	cache := reputation.NewCache(reader, cfg.Cache.TTL.Std(), nil, log)

	sweeper, err := reputation.NewSweeper(cache, cfg.Cache.SweepInterval, log)
	if err != nil {
		return nil, fmt.Errorf("cache sweeper: %w", err)
	}

	verifier, err := payment.NewFacilitatorClient(payment.FacilitatorConfig{
		BaseURL: cfg.Payment.FacilitatorURL,
		Timeout: cfg.Payment.Timeout.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("facilitator client: %w", err)
	}

	gate, err := payment.NewGate(verifier, payment.GateConfig{
		MerchantAddress: cfg.Payment.MerchantAddress,
		FacilitatorURL:  cfg.Payment.FacilitatorURL,
		Network:         cfg.Payment.Network,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("payment gate: %w", err)
	}

	prices := pricing.New(cfg.Pricing.BasePricesMicro, nil)

	gw, err := gateway.New(cache, prices, gate, nil, log)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	return &Application{
		cfg:     cfg,
		log:     log,
		gw:      gw,
		sweeper: sweeper,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpapi.NewHandler(gw, log, httpapi.Options{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Gateway exposes the facade, primarily for embedding and tests.
func (a *Application) Gateway() *gateway.Service { return a.gw }

// Run starts the sweeper and HTTP server and blocks until ctx is cancelled
// or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.cfg.Server.Addr).Info("gateway listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return a.Shutdown()
}

// Shutdown stops the server and sweeper and clears the cache.
func (a *Application) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		firstErr = err
	}
	if err := a.sweeper.Stop(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	a.gw.Close()

	a.log.Info("gateway stopped")
	return firstErr
}
