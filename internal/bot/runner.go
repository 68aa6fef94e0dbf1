// internal/bot/runner.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	solanaclient "github.com/Giovannithea/BOT-V8.2/internal/blockchain/solana"
	"github.com/Giovannithea/BOT-V8.2/internal/config"
	"github.com/Giovannithea/BOT-V8.2/internal/dex/raydium"
	"github.com/Giovannithea/BOT-V8.2/internal/eventlistener"
	"github.com/Giovannithea/BOT-V8.2/internal/sniper"
	"github.com/Giovannithea/BOT-V8.2/internal/storage"
	"github.com/Giovannithea/BOT-V8.2/internal/wallet"
)

const shutdownGrace = 15 * time.Second

// Runner wires the chain client, the pool store, the swap orchestrator,
// the position registry and the pool listener together and drives their
// shared lifecycle.
type Runner struct {
	logger   *zap.Logger
	config   *config.Config
	client   *solanaclient.Client
	store    *storage.MongoStore
	manager  *sniper.Manager
	listener *eventlistener.Listener
}

func NewRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	w, err := wallet.NewWallet(cfg.WalletPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	logger.Info("Wallet loaded", zap.String("address", w.String()))

	client, err := solanaclient.NewClient(ctx, cfg.RPCURL, cfg.WSURL, cfg.ConfirmTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to chain: %w", err)
	}

	store, err := storage.NewMongoStore(ctx, cfg.MongoURI, logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to store: %w", err)
	}

	programID, err := solana.PublicKeyFromBase58(cfg.AmmProgramID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse amm_program_id: %w", err)
	}

	swapper := raydium.NewSwapper(client, w, store, raydium.SwapConfig{
		AmmProgramID:     programID,
		ComputeUnitLimit: cfg.ComputeUnitLimit,
		ComputeUnitPrice: cfg.ComputeUnitPrice,
		MaxAmountRaw:     cfg.MaxBuyAmountRaw,
	}, logger)

	manager := sniper.NewManager(swapper, client, cfg.PollInterval(), logger)

	buyAmountRaw := uint64(cfg.BuyAmountSol * float64(raydium.LamportsPerSOL))
	listener := eventlistener.NewListener(client, store, manager, programID,
		buyAmountRaw, cfg.SellTargetPercent, logger)

	return &Runner{
		logger:   logger,
		config:   cfg,
		client:   client,
		store:    store,
		manager:  manager,
		listener: listener,
	}, nil
}

// Manager exposes the position registry for live adjustments.
func (r *Runner) Manager() *sniper.Manager {
	return r.manager
}

// Run blocks until the listener stops or a termination signal arrives,
// then drains open positions and releases connections.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.listener.Run(gctx)
	})
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			r.logger.Info("Signal received", zap.String("signal", sig.String()))
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	err := g.Wait()
	r.shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runner) shutdown() {
	r.logger.Info("Shutting down",
		zap.Int("open_positions", r.manager.Len()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := r.manager.Shutdown(ctx); err != nil {
		r.logger.Warn("Positions did not drain in time", zap.Error(err))
	}
	if err := r.store.Close(ctx); err != nil {
		r.logger.Warn("Store close failed", zap.Error(err))
	}
	r.client.Close()
}
