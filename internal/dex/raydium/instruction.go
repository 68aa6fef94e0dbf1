// internal/dex/raydium/instruction.go
package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

// Direction selects which side of the pool the swap feeds. It is mapped to
// an opcode at the encoding boundary only; everything upstream is
// direction-agnostic.
type Direction uint8

const (
	DirectionBuy Direction = iota
	DirectionSell
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "buy"
	case DirectionSell:
		return "sell"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// opcode returns the on-chain instruction tag for the direction.
func (d Direction) opcode() (uint8, error) {
	switch d {
	case DirectionBuy:
		return SwapBaseInOpcode, nil
	case DirectionSell:
		return SwapBaseOutOpcode, nil
	default:
		return 0, &EncodingError{Direction: d}
	}
}

// ValidateTokenData checks the pool record carries every account the swap
// instruction references. Must run before address derivation.
func ValidateTokenData(record *storage.PoolRecord) error {
	checks := []struct {
		name  string
		value string
	}{
		{"marketId", record.MarketID},
		{"ammOpenOrders", record.AmmOpenOrders},
		{"marketProgramId", record.MarketProgramID},
		{"marketBids", record.MarketBids},
		{"marketAsks", record.MarketAsks},
		{"marketEventQueue", record.MarketEventQueue},
		{"marketBaseVault", record.MarketBaseVault},
		{"marketQuoteVault", record.MarketQuoteVault},
		{"marketAuthority", record.MarketAuthority},
		{"tokenAddress", record.TokenAddress},
	}
	for _, check := range checks {
		if check.value == "" {
			return &InvalidTokenDataError{Field: check.name}
		}
	}
	return nil
}

func validatePublicKey(name, key string) (solana.PublicKey, error) {
	if key == "" {
		return solana.PublicKey{}, &InvalidTokenDataError{Field: name}
	}
	pubKey, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", name, key, err)
	}
	return pubKey, nil
}

// BuildSwapInstruction encodes the Raydium V4 swap. The account order is
// fixed by the program; a wrong order or flag produces a program-level
// rejection, not a local error.
func BuildSwapInstruction(
	record *storage.PoolRecord,
	derived *DerivedAddresses,
	userSource solana.PublicKey,
	userDestination solana.PublicKey,
	userAuthority solana.PublicKey,
	rawAmount uint64,
	direction Direction,
	programID solana.PublicKey,
) (solana.Instruction, error) {
	if err := ValidateTokenData(record); err != nil {
		return nil, err
	}

	opcode, err := direction.opcode()
	if err != nil {
		return nil, err
	}

	marketKeys := []struct {
		name       string
		value      string
		isWritable bool
	}{
		{"ammOpenOrders", record.AmmOpenOrders, true},
		{"marketProgramId", record.MarketProgramID, false},
		{"marketId", record.MarketID, true},
		{"marketBids", record.MarketBids, true},
		{"marketAsks", record.MarketAsks, true},
		{"marketEventQueue", record.MarketEventQueue, true},
		{"marketBaseVault", record.MarketBaseVault, true},
		{"marketQuoteVault", record.MarketQuoteVault, true},
		{"marketAuthority", record.MarketAuthority, false},
	}
	parsed := make(map[string]*solana.AccountMeta, len(marketKeys))
	for _, key := range marketKeys {
		pubKey, err := validatePublicKey(key.name, key.value)
		if err != nil {
			return nil, err
		}
		parsed[key.name] = &solana.AccountMeta{PublicKey: pubKey, IsWritable: key.isWritable}
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: derived.AmmID, IsWritable: true},
		{PublicKey: derived.AmmAuthority},
		parsed["ammOpenOrders"],
		{PublicKey: derived.CoinVault, IsWritable: true},
		{PublicKey: derived.PcVault, IsWritable: true},
		parsed["marketProgramId"],
		parsed["marketId"],
		parsed["marketBids"],
		parsed["marketAsks"],
		parsed["marketEventQueue"],
		parsed["marketBaseVault"],
		parsed["marketQuoteVault"],
		parsed["marketAuthority"],
		{PublicKey: userSource, IsWritable: true},
		{PublicKey: userDestination, IsWritable: true},
		{PublicKey: userAuthority, IsSigner: true},
	}

	data := make([]byte, SwapInstructionSize)
	data[0] = opcode
	binary.LittleEndian.PutUint64(data[1:], rawAmount)

	return solana.NewInstruction(programID, accounts, data), nil
}
