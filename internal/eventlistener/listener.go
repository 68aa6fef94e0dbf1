// internal/eventlistener/listener.go
package eventlistener

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

// Raydium logs one of these lines when a new pool is initialized.
var poolCreationMarkers = []string{
	"InitializeInstruction2",
	"CreatePool",
}

// jupiterProgramID marks aggregated swaps that also mention the AMM
// program. Those are routing traffic, not pool creations.
var jupiterProgramID = solana.MPK("JUP6bkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

type admitter interface {
	Admit(ctx context.Context, record *storage.PoolRecord, buyAmountRaw uint64, sellTargetPercent float64) (uuid.UUID, error)
}

// Listener watches the AMM program logs for pool creations, persists the
// extracted pool data and hands each new pool to the position registry.
type Listener struct {
	client  blockchain.Client
	store   storage.Store
	manager admitter
	logger  *zap.Logger

	programID         solana.PublicKey
	buyAmountRaw      uint64
	sellTargetPercent float64
}

func NewListener(client blockchain.Client, store storage.Store, manager admitter, programID solana.PublicKey, buyAmountRaw uint64, sellTargetPercent float64, logger *zap.Logger) *Listener {
	return &Listener{
		client:            client,
		store:             store,
		manager:           manager,
		logger:            logger.Named("listener"),
		programID:         programID,
		buyAmountRaw:      buyAmountRaw,
		sellTargetPercent: sellTargetPercent,
	}
}

// Run subscribes to the AMM program logs and processes notifications
// until the context is canceled. A failure to process one candidate is
// logged and does not stop the stream.
func (l *Listener) Run(ctx context.Context) error {
	sub, err := l.client.SubscribeLogs(ctx, l.programID)
	if err != nil {
		return fmt.Errorf("subscribe to program logs: %w", err)
	}
	defer sub.Unsubscribe()

	l.logger.Info("Listening for new liquidity pools",
		zap.String("program", l.programID.String()))

	for {
		event, err := sub.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("logs subscription: %w", err)
		}

		// Failed transactions still emit logs. Skip them.
		if event.Err != nil {
			continue
		}
		if !hasPoolCreationMarker(event.Logs) {
			continue
		}

		if err := l.handleCandidate(ctx, event.Signature); err != nil {
			l.logger.Warn("Pool candidate rejected",
				zap.String("signature", event.Signature.String()),
				zap.Error(err))
		}
	}
}

func (l *Listener) handleCandidate(ctx context.Context, signature solana.Signature) error {
	result, err := l.client.GetTransaction(ctx, signature)
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}

	if mentionsJupiter(tx) {
		l.logger.Debug("Skipping aggregator transaction",
			zap.String("signature", signature.String()))
		return nil
	}

	record, err := l.extractPool(ctx, tx)
	if err != nil {
		return fmt.Errorf("extract pool: %w", err)
	}

	id, err := l.store.SavePool(ctx, record)
	if err != nil {
		return fmt.Errorf("persist pool: %w", err)
	}
	record.ID = id

	l.logger.Info("New pool detected",
		zap.String("pool_id", id),
		zap.String("token", record.TokenAddress),
		zap.Float64("initial_price", record.V))

	if _, err := l.manager.Admit(ctx, record, l.buyAmountRaw, l.sellTargetPercent); err != nil {
		return fmt.Errorf("admit sniper: %w", err)
	}
	return nil
}

func hasPoolCreationMarker(logs []string) bool {
	for _, line := range logs {
		for _, marker := range poolCreationMarkers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}

func mentionsJupiter(tx *solana.Transaction) bool {
	for _, key := range tx.Message.AccountKeys {
		if key.Equals(jupiterProgramID) {
			return true
		}
	}
	return false
}
