// internal/dex/raydium/instruction_test.go
package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

func testPoolRecord() *storage.PoolRecord {
	return &storage.PoolRecord{
		ID:               "64f1b2c3d4e5f6a7b8c9d0e1",
		MarketID:         testMarketID,
		AmmOpenOrders:    solana.NewWallet().PublicKey().String(),
		MarketProgramID:  "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		MarketBids:       solana.NewWallet().PublicKey().String(),
		MarketAsks:       solana.NewWallet().PublicKey().String(),
		MarketEventQueue: solana.NewWallet().PublicKey().String(),
		MarketBaseVault:  solana.NewWallet().PublicKey().String(),
		MarketQuoteVault: solana.NewWallet().PublicKey().String(),
		MarketAuthority:  solana.NewWallet().PublicKey().String(),
		TokenAddress:     solana.NewWallet().PublicKey().String(),
		Decimals:         6,
		SolVault:         solana.NewWallet().PublicKey().String(),
		K:                1_000_000,
		V:                50,
	}
}

func buildTestInstruction(t *testing.T, record *storage.PoolRecord, rawAmount uint64, direction Direction) solana.Instruction {
	t.Helper()

	derived, err := DeriveAddresses(record.MarketID, testProgramID)
	require.NoError(t, err)

	ix, err := BuildSwapInstruction(
		record,
		derived,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		rawAmount,
		direction,
		solana.MPK(testProgramID),
	)
	require.NoError(t, err)
	return ix
}

func TestBuildSwapInstructionPayload(t *testing.T) {
	tests := []struct {
		name       string
		direction  Direction
		rawAmount  uint64
		wantOpcode byte
	}{
		{
			name:       "Buy opcode and amount",
			direction:  DirectionBuy,
			rawAmount:  1_000_000_000,
			wantOpcode: 9,
		},
		{
			name:       "Sell opcode and amount",
			direction:  DirectionSell,
			rawAmount:  42,
			wantOpcode: 10,
		},
		{
			name:       "Maximum amount",
			direction:  DirectionBuy,
			rawAmount:  ^uint64(0),
			wantOpcode: 9,
		},
		{
			name:       "Zero amount encodes zero bytes",
			direction:  DirectionSell,
			rawAmount:  0,
			wantOpcode: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := buildTestInstruction(t, testPoolRecord(), tt.rawAmount, tt.direction)

			data, err := ix.Data()
			require.NoError(t, err)
			require.Len(t, data, SwapInstructionSize)

			assert.Equal(t, tt.wantOpcode, data[0])
			assert.Equal(t, tt.rawAmount, binary.LittleEndian.Uint64(data[1:]))
		})
	}
}

func TestBuildSwapInstructionAccountOrder(t *testing.T) {
	record := testPoolRecord()
	derived, err := DeriveAddresses(record.MarketID, testProgramID)
	require.NoError(t, err)

	userSource := solana.NewWallet().PublicKey()
	userDest := solana.NewWallet().PublicKey()
	userAuthority := solana.NewWallet().PublicKey()

	ix, err := BuildSwapInstruction(record, derived, userSource, userDest, userAuthority,
		100, DirectionBuy, solana.MPK(testProgramID))
	require.NoError(t, err)

	assert.Equal(t, solana.MPK(testProgramID), ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 16)

	expected := []struct {
		key      solana.PublicKey
		writable bool
		signer   bool
	}{
		{derived.AmmID, true, false},
		{derived.AmmAuthority, false, false},
		{solana.MPK(record.AmmOpenOrders), true, false},
		{derived.CoinVault, true, false},
		{derived.PcVault, true, false},
		{solana.MPK(record.MarketProgramID), false, false},
		{solana.MPK(record.MarketID), true, false},
		{solana.MPK(record.MarketBids), true, false},
		{solana.MPK(record.MarketAsks), true, false},
		{solana.MPK(record.MarketEventQueue), true, false},
		{solana.MPK(record.MarketBaseVault), true, false},
		{solana.MPK(record.MarketQuoteVault), true, false},
		{solana.MPK(record.MarketAuthority), false, false},
		{userSource, true, false},
		{userDest, true, false},
		{userAuthority, false, true},
	}
	for i, want := range expected {
		assert.Equal(t, want.key, accounts[i].PublicKey, "account %d key", i)
		assert.Equal(t, want.writable, accounts[i].IsWritable, "account %d writable", i)
		assert.Equal(t, want.signer, accounts[i].IsSigner, "account %d signer", i)
	}
}

func TestBuildSwapInstructionMissingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*storage.PoolRecord)
		field  string
	}{
		{"Missing market id", func(r *storage.PoolRecord) { r.MarketID = "" }, "marketId"},
		{"Missing open orders", func(r *storage.PoolRecord) { r.AmmOpenOrders = "" }, "ammOpenOrders"},
		{"Missing market authority", func(r *storage.PoolRecord) { r.MarketAuthority = "" }, "marketAuthority"},
		{"Missing event queue", func(r *storage.PoolRecord) { r.MarketEventQueue = "" }, "marketEventQueue"},
		{"Missing token address", func(r *storage.PoolRecord) { r.TokenAddress = "" }, "tokenAddress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testPoolRecord()
			derived, err := DeriveAddresses(record.MarketID, testProgramID)
			require.NoError(t, err)

			tt.mutate(record)

			ix, err := BuildSwapInstruction(record, derived,
				solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
				solana.NewWallet().PublicKey(), 100, DirectionBuy, solana.MPK(testProgramID))
			require.Error(t, err)
			assert.Nil(t, ix)

			var tokenErr *InvalidTokenDataError
			require.ErrorAs(t, err, &tokenErr)
			assert.Equal(t, tt.field, tokenErr.Field)
		})
	}
}

func TestBuildSwapInstructionUnknownDirection(t *testing.T) {
	record := testPoolRecord()
	derived, err := DeriveAddresses(record.MarketID, testProgramID)
	require.NoError(t, err)

	ix, err := BuildSwapInstruction(record, derived,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), 100, Direction(7), solana.MPK(testProgramID))
	require.Error(t, err)
	assert.Nil(t, ix)

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, Direction(7), encErr.Direction)
}

func TestValidateTokenData(t *testing.T) {
	assert.NoError(t, ValidateTokenData(testPoolRecord()))

	record := testPoolRecord()
	record.MarketBaseVault = ""
	err := ValidateTokenData(record)
	require.Error(t, err)

	var tokenErr *InvalidTokenDataError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "marketBaseVault", tokenErr.Field)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "buy", DirectionBuy.String())
	assert.Equal(t, "sell", DirectionSell.String())
	assert.Equal(t, "direction(9)", Direction(9).String())
}
