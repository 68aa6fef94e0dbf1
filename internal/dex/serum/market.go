// internal/dex/serum/market.go
package serum

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MarketStateSize is the byte length of a serum v3 market account.
const MarketStateSize = 388

// AccountFlags is the little-endian u64 bitfield every serum account
// starts with (after the 5-byte padding prefix). An initialized market
// carries 0x03: bit 0 Initialized, bit 1 Market.
type AccountFlags uint64

const (
	FlagInitialized AccountFlags = 1 << 0
	FlagMarket      AccountFlags = 1 << 1
)

func (f AccountFlags) IsInitialized() bool { return f&FlagInitialized != 0 }
func (f AccountFlags) IsMarket() bool      { return f&FlagMarket != 0 }

// MarketState is the on-chain layout of a serum market. Only the fields
// the swap account list needs are read, but the full layout must be
// declared for the decoder to walk the buffer correctly.
type MarketState struct {
	SerumPadding           [5]byte
	AccountFlags           AccountFlags
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	EndPadding             [7]byte
}

// DecodeMarketState parses a raw serum market account.
func DecodeMarketState(data []byte) (*MarketState, error) {
	if len(data) < MarketStateSize {
		return nil, fmt.Errorf("market account too short: %d bytes", len(data))
	}
	var state MarketState
	if err := bin.NewBinDecoder(data).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode market state: %w", err)
	}
	if !state.AccountFlags.IsInitialized() || !state.AccountFlags.IsMarket() {
		return nil, fmt.Errorf("account is not an initialized market")
	}
	return &state, nil
}

// VaultSigner derives the market's vault owner from the stored nonce. The
// seeds are the market address followed by the nonce as a little-endian
// u64, against the serum program.
func VaultSigner(market, program solana.PublicKey, nonce uint64) (solana.PublicKey, error) {
	nonceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceBytes, nonce)

	signer, err := solana.CreateProgramAddress(
		[][]byte{market.Bytes(), nonceBytes},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault signer: %w", err)
	}
	return signer, nil
}
