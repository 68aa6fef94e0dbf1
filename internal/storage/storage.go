// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
)

// ErrPoolNotFound is returned when no record exists for the given id.
var ErrPoolNotFound = errors.New("pool record not found")

// PoolRecord identifies one Raydium liquidity pool. It is written once by
// the ingestion listener and read-only afterwards; the orchestrator
// refetches it per swap call instead of caching it.
type PoolRecord struct {
	ID               string  `bson:"-"`
	MarketID         string  `bson:"marketId"`
	AmmOpenOrders    string  `bson:"ammOpenOrders"`
	MarketProgramID  string  `bson:"marketProgramId"`
	MarketBids       string  `bson:"marketBids"`
	MarketAsks       string  `bson:"marketAsks"`
	MarketEventQueue string  `bson:"marketEventQueue"`
	MarketBaseVault  string  `bson:"marketBaseVault"`
	MarketQuoteVault string  `bson:"marketQuoteVault"`
	MarketAuthority  string  `bson:"marketAuthority"`
	TokenAddress     string  `bson:"tokenAddress"`
	Decimals         uint8   `bson:"decimals"`
	SolVault         string  `bson:"solVault"`
	K                float64 `bson:"K"`
	V                float64 `bson:"V"`
}

// Store is the persistence boundary consumed by the core. Lookup by id is
// the only operation the trading path uses.
type Store interface {
	GetPool(ctx context.Context, id string) (*PoolRecord, error)
	SavePool(ctx context.Context, record *PoolRecord) (string, error)
}
