// internal/sniper/manager.go
package sniper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

// ErrPositionNotFound is returned for handles that were never admitted or
// have already been removed.
var ErrPositionNotFound = errors.New("position not found")

// Manager owns the set of live snipers. It is constructed explicitly and
// passed by reference; there is no package-level instance. Admission
// failures are isolated to the one position and never affect the rest.
type Manager struct {
	swapper      swapExecutor
	chain        vaultWatcher
	pollInterval time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	snipers map[uuid.UUID]*Sniper
	wg      sync.WaitGroup
}

func NewManager(swapper swapExecutor, chain vaultWatcher, pollInterval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		swapper:      swapper,
		chain:        chain,
		pollInterval: pollInterval,
		logger:       logger.Named("manager"),
		snipers:      make(map[uuid.UUID]*Sniper),
	}
}

// Admit creates a sniper for the pool, registers it, and starts its
// lifecycle (the initial buy included). The returned handle is valid for
// mutation and inspection until the position closes or fails.
func (m *Manager) Admit(ctx context.Context, record *storage.PoolRecord, buyAmountRaw uint64, sellTargetPercent float64) (uuid.UUID, error) {
	position, err := newPosition(record, buyAmountRaw, sellTargetPercent)
	if err != nil {
		return uuid.Nil, err
	}

	sn := newSniper(position, m.swapper, m.chain, m.pollInterval, m.logger)

	m.mu.Lock()
	m.snipers[position.ID] = sn
	m.mu.Unlock()

	m.logger.Info("Sniper admitted",
		zap.String("position_id", position.ID.String()),
		zap.String("token", record.TokenAddress),
		zap.Uint64("buy_amount", buyAmountRaw),
		zap.Float64("sell_target_percent", sellTargetPercent))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(position.ID)
		if err := sn.Run(ctx); err != nil {
			m.logger.Error("Sniper terminated",
				zap.String("position_id", position.ID.String()),
				zap.Error(err))
		}
	}()

	return position.ID, nil
}

// SetBuyAmount adjusts the buy amount of a live position.
func (m *Manager) SetBuyAmount(handle uuid.UUID, amount uint64) error {
	sn, ok := m.byHandle(handle)
	if !ok {
		return ErrPositionNotFound
	}
	return sn.Position().SetBuyAmount(amount)
}

// SetSellTargetPrice adjusts the sell target of a live position.
func (m *Manager) SetSellTargetPrice(handle uuid.UUID, percent float64) error {
	sn, ok := m.byHandle(handle)
	if !ok {
		return ErrPositionNotFound
	}
	return sn.Position().SetSellTargetPrice(percent)
}

// Position returns the position behind a handle for inspection.
func (m *Manager) Position(handle uuid.UUID) (*Position, error) {
	sn, ok := m.byHandle(handle)
	if !ok {
		return nil, ErrPositionNotFound
	}
	return sn.Position(), nil
}

// Len reports the number of live positions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snipers)
}

// Shutdown cancels every live sniper and waits for teardown or context
// expiry, whichever comes first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	for _, sn := range m.snipers {
		sn.Cancel()
	}
	m.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) byHandle(handle uuid.UUID) (*Sniper, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sn, ok := m.snipers[handle]
	return sn, ok
}

func (m *Manager) remove(handle uuid.UUID) {
	m.mu.Lock()
	delete(m.snipers, handle)
	m.mu.Unlock()

	m.logger.Debug("Sniper removed", zap.String("position_id", handle.String()))
}
