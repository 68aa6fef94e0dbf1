// internal/sniper/position.go
package sniper

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

// State is the lifecycle of one position. The only transition that races
// is MONITORING -> CLOSING, claimed with a compare-and-swap so that the
// poll and push triggers can never both start a sell.
type State int32

const (
	StateOpening State = iota
	StateMonitoring
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateMonitoring:
		return "monitoring"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrPositionNotAdjustable = errors.New("position parameters can only change while opening or monitoring")
	ErrInvalidPoolConstants  = errors.New("pool constants K and V must be positive")
)

// Position is owned exclusively by one Sniper. Trade parameters may be
// adjusted live; the dependent sell price is recomputed immediately and
// takes effect on the next trigger evaluation, never retroactively.
type Position struct {
	ID           uuid.UUID
	PoolID       string
	TokenAddress string
	SolVault     solana.PublicKey
	Decimals     uint8
	K            float64
	V            float64

	mu                  sync.RWMutex
	buyAmountRaw        uint64
	sellTargetPercent   float64
	calculatedSellPrice float64

	state atomic.Int32
}

func newPosition(record *storage.PoolRecord, buyAmountRaw uint64, sellTargetPercent float64) (*Position, error) {
	if record.K <= 0 || record.V <= 0 {
		return nil, fmt.Errorf("%w: K=%v V=%v", ErrInvalidPoolConstants, record.K, record.V)
	}
	solVault, err := solana.PublicKeyFromBase58(record.SolVault)
	if err != nil {
		return nil, fmt.Errorf("invalid solVault %q: %w", record.SolVault, err)
	}

	p := &Position{
		ID:                uuid.New(),
		PoolID:            record.ID,
		TokenAddress:      record.TokenAddress,
		SolVault:          solVault,
		Decimals:          record.Decimals,
		K:                 record.K,
		V:                 record.V,
		buyAmountRaw:      buyAmountRaw,
		sellTargetPercent: sellTargetPercent,
	}
	p.calculatedSellPrice = p.V * (1 + sellTargetPercent/100)
	p.state.Store(int32(StateOpening))
	return p, nil
}

func (p *Position) State() State {
	return State(p.state.Load())
}

func (p *Position) setState(s State) {
	p.state.Store(int32(s))
}

// claimTransition atomically moves from one state to another. Returns
// false when another trigger already claimed it. Holding mu across the
// swap orders the claim against the parameter setters: once it returns
// true, no setter can still land a mutation while the close runs.
func (p *Position) claimTransition(from, to State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.CompareAndSwap(int32(from), int32(to))
}

func (p *Position) BuyAmount() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buyAmountRaw
}

func (p *Position) SellPrice() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calculatedSellPrice
}

func (p *Position) SellTargetPercent() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sellTargetPercent
}

// SetBuyAmount replaces the raw buy amount. Rejected once a sell is in
// flight or the position is done.
func (p *Position) SetBuyAmount(amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.adjustable() {
		return ErrPositionNotAdjustable
	}
	p.buyAmountRaw = amount
	return nil
}

// SetSellTargetPrice replaces the target percentage and recomputes the
// sell price from the pool's reference price basis.
func (p *Position) SetSellTargetPrice(percent float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.adjustable() {
		return ErrPositionNotAdjustable
	}
	p.sellTargetPercent = percent
	p.calculatedSellPrice = p.V * (1 + percent/100)
	return nil
}

func (p *Position) adjustable() bool {
	switch p.State() {
	case StateOpening, StateMonitoring:
		return true
	default:
		return false
	}
}

// calculatePrice derives the pool price from the SOL-side reserve via the
// constant-product relation: X = K/balance, price = balance/X = balance²/K.
func (p *Position) calculatePrice(balanceSol float64) float64 {
	return balanceSol * balanceSol / p.K
}
