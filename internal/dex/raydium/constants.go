// internal/dex/raydium/constants.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	RaydiumV4ProgramID = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	WrappedSolMint     = solana.MPK("So11111111111111111111111111111111111111112")
)

// PDA seeds (Raydium V4)
const (
	AmmAuthoritySeed = "amm_authority"
	AmmIDSeed        = "amm"
	CoinVaultSeed    = "coin_vault"
	PcVaultSeed      = "pc_vault"
)

// Swap instruction opcodes. Byte 0 of the 9-byte payload.
const (
	SwapBaseInOpcode  uint8 = 9  // buy
	SwapBaseOutOpcode uint8 = 10 // sell
)

// SwapInstructionSize is 1 byte opcode + 8 bytes little-endian amount.
const SwapInstructionSize = 9

// Account size constants
const (
	TokenAccountSize = 165
)

const LamportsPerSOL = 1_000_000_000
