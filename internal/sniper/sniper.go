// internal/sniper/sniper.go
package sniper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
	"github.com/Giovannithea/BOT-V8.2/internal/dex/raydium"
)

const buyRetryBudget = 30 * time.Second

// swapExecutor is the slice of the orchestrator the monitor needs.
type swapExecutor interface {
	Swap(ctx context.Context, poolID string, rawAmount uint64, direction raydium.Direction) (solana.Signature, error)
}

// vaultWatcher is the slice of the chain client the monitor needs.
type vaultWatcher interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	SubscribeVault(ctx context.Context, vault solana.PublicKey) (blockchain.VaultSubscription, error)
}

// Sniper drives one position: initial buy, dual-trigger price watch, and
// the exactly-once sell. The poll timer and the push subscription are
// race-equivalent; whichever observes a qualifying price first claims the
// CLOSING transition and the other no-ops.
type Sniper struct {
	position     *Position
	swapper      swapExecutor
	chain        vaultWatcher
	pollInterval time.Duration
	logger       *zap.Logger

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

func newSniper(position *Position, swapper swapExecutor, chain vaultWatcher, pollInterval time.Duration, logger *zap.Logger) *Sniper {
	return &Sniper{
		position:     position,
		swapper:      swapper,
		chain:        chain,
		pollInterval: pollInterval,
		logger: logger.Named("sniper").With(
			zap.String("position_id", position.ID.String()),
			zap.String("token", position.TokenAddress)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Position exposes the position for inspection and live mutation.
func (s *Sniper) Position() *Position {
	return s.position
}

// Run executes the position lifecycle and blocks until the position is
// closed, failed, or cancelled. The interval timer and the subscription
// are both released on every exit path.
func (s *Sniper) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(s.done)

	// The quit channel exists from construction, so a Cancel issued before
	// or during Run is never lost and needs no synchronization here.
	go func() {
		select {
		case <-s.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := s.openPosition(ctx); err != nil {
		s.position.setState(StateFailed)
		return err
	}

	if !s.position.claimTransition(StateOpening, StateMonitoring) {
		// Cancelled between buy confirmation and monitoring.
		return ctx.Err()
	}

	s.logger.Info("Monitoring position",
		zap.Float64("reference_price", s.position.V),
		zap.Float64("target_percent", s.position.SellTargetPercent()),
		zap.Float64("sell_price", s.position.SellPrice()))

	sub, err := s.chain.SubscribeVault(ctx, s.position.SolVault)
	if err != nil {
		// The poll trigger alone still covers the position; the push
		// channel is redundancy against delivery gaps.
		s.logger.Warn("Vault subscription unavailable, polling only", zap.Error(err))
	} else {
		defer sub.Unsubscribe()
		go s.watchPush(ctx, sub)
	}

	s.watchPoll(ctx)
	return nil
}

// Cancel tears the position down without selling. Safe to call from any
// goroutine, any number of times, before or after Run has started.
func (s *Sniper) Cancel() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// Done is closed once the sniper has fully torn down.
func (s *Sniper) Done() <-chan struct{} {
	return s.done
}

// openPosition performs the initial buy under a bounded retry policy. The
// position id is the idempotency key; construction and validation errors
// are never retried.
func (s *Sniper) openPosition(ctx context.Context) error {
	amount := s.position.BuyAmount()
	s.logger.Info("Opening position", zap.Uint64("raw_amount", amount))

	op := func() (solana.Signature, error) {
		sig, err := s.swapper.Swap(ctx, s.position.PoolID, amount, raydium.DirectionBuy)
		if err != nil && !isRetryable(err) {
			return solana.Signature{}, backoff.Permanent(err)
		}
		return sig, err
	}

	sig, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(buyRetryBudget),
	)
	if err != nil {
		s.logger.Error("Buy failed, discarding position", zap.Error(err))
		return err
	}

	s.logger.Info("Buy confirmed", zap.String("signature", sig.String()))
	return nil
}

// isRetryable reports whether the failure could heal on resubmission.
// Caller bugs and chain-level program rejections never do.
func isRetryable(err error) bool {
	var (
		validationErr *raydium.ValidationError
		tokenDataErr  *raydium.InvalidTokenDataError
		derivationErr *raydium.AddressDerivationError
		encodingErr   *raydium.EncodingError
		malformedErr  *raydium.MalformedTransactionError
		rejectedErr   *blockchain.TransactionRejectedError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &tokenDataErr),
		errors.As(err, &derivationErr),
		errors.As(err, &encodingErr),
		errors.As(err, &malformedErr),
		errors.As(err, &rejectedErr):
		return false
	}
	return true
}

// watchPoll reads the vault balance on a fixed interval and evaluates the
// sell trigger. Runs until the position is done or the context ends.
func (s *Sniper) watchPoll(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.position.State() != StateMonitoring {
				return
			}
			lamports, err := s.chain.GetBalance(ctx, s.position.SolVault, rpc.CommitmentConfirmed)
			if err != nil {
				s.logger.Warn("Failed to read vault balance", zap.Error(err))
				continue
			}
			s.evaluate(ctx, lamports, "poll")
		}
	}
}

// watchPush recomputes the price on every vault change notification.
func (s *Sniper) watchPush(ctx context.Context, sub blockchain.VaultSubscription) {
	for {
		lamports, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Vault subscription closed", zap.Error(err))
			}
			return
		}
		if s.position.State() != StateMonitoring {
			return
		}
		s.evaluate(ctx, lamports, "push")
	}
}

// evaluate checks one observation against the target and, on the first
// qualifying one, claims the CLOSING transition and sells. Reports whether
// this call initiated the sell.
func (s *Sniper) evaluate(ctx context.Context, vaultLamports uint64, trigger string) bool {
	balance := float64(vaultLamports) / float64(raydium.LamportsPerSOL)
	price := s.position.calculatePrice(balance)

	s.logger.Debug("Price observation",
		zap.String("trigger", trigger),
		zap.Float64("vault_sol", balance),
		zap.Float64("price", price))

	if price < s.position.SellPrice() {
		return false
	}

	if !s.position.claimTransition(StateMonitoring, StateClosing) {
		// The other trigger already claimed the sell.
		return false
	}

	s.logger.Info("Sell target reached",
		zap.String("trigger", trigger),
		zap.Float64("price", price),
		zap.Float64("sell_price", s.position.SellPrice()))

	s.closePosition(ctx)
	return true
}

// closePosition runs the sell once the CLOSING claim is held. Success or
// failure, the triggers are shut down afterwards; a failed sell never
// silently re-arms.
func (s *Sniper) closePosition(ctx context.Context) {
	defer s.Cancel()

	sig, err := s.swapper.Swap(ctx, s.position.PoolID, s.position.BuyAmount(), raydium.DirectionSell)
	if err != nil {
		s.position.setState(StateFailed)
		s.logger.Error("Sell failed", zap.Error(err))
		return
	}

	s.position.setState(StateClosed)
	s.logger.Info("Position closed", zap.String("signature", sig.String()))
}
