// internal/dex/raydium/swap_test.go
package raydium

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
	"github.com/Giovannithea/BOT-V8.2/internal/storage"
	"github.com/Giovannithea/BOT-V8.2/internal/wallet"
)

const testRentExempt = uint64(2_039_280)

// fakeChainClient satisfies blockchain.Client with canned responses and
// records every submitted transaction.
type fakeChainClient struct {
	sentTxs []*solana.Transaction

	sendErr    error
	confirmErr error
	balance    uint64
}

func (f *fakeChainClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

func (f *fakeChainClient) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChainClient) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	return f.balance, nil
}

func (f *fakeChainClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	return testRentExempt, nil
}

func (f *fakeChainClient) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChainClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sentTxs = append(f.sentTxs, tx)
	return solana.Signature{42}, nil
}

func (f *fakeChainClient) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	return f.confirmErr
}

func (f *fakeChainClient) SubscribeVault(ctx context.Context, vault solana.PublicKey) (blockchain.VaultSubscription, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChainClient) SubscribeLogs(ctx context.Context, program solana.PublicKey) (blockchain.LogsSubscription, error) {
	return nil, fmt.Errorf("not implemented")
}

// memoryStore is an in-memory Store for orchestrator tests.
type memoryStore struct {
	records map[string]*storage.PoolRecord
}

func newMemoryStore(records ...*storage.PoolRecord) *memoryStore {
	s := &memoryStore{records: make(map[string]*storage.PoolRecord)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *memoryStore) GetPool(ctx context.Context, id string) (*storage.PoolRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, storage.ErrPoolNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *memoryStore) SavePool(ctx context.Context, record *storage.PoolRecord) (string, error) {
	s.records[record.ID] = record
	return record.ID, nil
}

func newTestSwapper(t *testing.T, client *fakeChainClient, records ...*storage.PoolRecord) *Swapper {
	t.Helper()

	w, err := wallet.NewWallet(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	return NewSwapper(client, w, newMemoryStore(records...), SwapConfig{
		AmmProgramID:     solana.MPK(testProgramID),
		ComputeUnitLimit: 200_000,
		ComputeUnitPrice: 10_000,
		MaxAmountRaw:     1_000_000_000_000,
	}, zap.NewNop())
}

func sentPrograms(t *testing.T, tx *solana.Transaction) []solana.PublicKey {
	t.Helper()
	programs := make([]solana.PublicKey, 0, len(tx.Message.Instructions))
	for _, ix := range tx.Message.Instructions {
		program, err := tx.Message.Program(ix.ProgramIDIndex)
		require.NoError(t, err)
		programs = append(programs, program)
	}
	return programs
}

func TestSwapAmountValidation(t *testing.T) {
	record := testPoolRecord()
	client := &fakeChainClient{}
	swapper := newTestSwapper(t, client, record)

	tests := []struct {
		name      string
		amount    uint64
		wantError bool
	}{
		{"Zero amount rejected", 0, true},
		{"Minimum amount accepted", 1, false},
		{"Ceiling accepted", 1_000_000_000_000, false},
		{"Above ceiling rejected", 1_000_000_000_001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := swapper.Swap(context.Background(), record.ID, tt.amount, DirectionBuy)
			if tt.wantError {
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, tt.amount, valErr.Amount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSwapUnknownPool(t *testing.T) {
	client := &fakeChainClient{}
	swapper := newTestSwapper(t, client)

	_, err := swapper.Swap(context.Background(), "64f1b2c3d4e5f6a7b8c9d0e1", 100, DirectionBuy)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrPoolNotFound)
	assert.Empty(t, client.sentTxs)
}

func TestSwapTransactionShapeTokenPool(t *testing.T) {
	record := testPoolRecord()
	client := &fakeChainClient{}
	swapper := newTestSwapper(t, client, record)

	sig, err := swapper.Swap(context.Background(), record.ID, 500, DirectionBuy)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	require.Len(t, client.sentTxs, 1)
	tx := client.sentTxs[0]
	programs := sentPrograms(t, tx)

	// Budget directives first, then the swap; no wrap for a token pool.
	require.Len(t, programs, 3)
	assert.Equal(t, computebudget.ProgramID, programs[0])
	assert.Equal(t, computebudget.ProgramID, programs[1])
	assert.Equal(t, solana.MPK(testProgramID), programs[2])

	swapData := []byte(tx.Message.Instructions[2].Data)
	require.Len(t, swapData, SwapInstructionSize)
	assert.Equal(t, byte(SwapBaseInOpcode), swapData[0])
	assert.Equal(t, uint64(500), binary.LittleEndian.Uint64(swapData[1:]))
}

func TestSwapTransactionShapeNativePool(t *testing.T) {
	record := testPoolRecord()
	record.TokenAddress = WrappedSolMint.String()
	client := &fakeChainClient{}
	swapper := newTestSwapper(t, client, record)

	rawAmount := uint64(1_000_000)
	_, err := swapper.Swap(context.Background(), record.ID, rawAmount, DirectionSell)
	require.NoError(t, err)

	require.Len(t, client.sentTxs, 1)
	tx := client.sentTxs[0]
	programs := sentPrograms(t, tx)

	// limit, price, fund, create, swap, close.
	require.Len(t, programs, 6)
	assert.Equal(t, computebudget.ProgramID, programs[0])
	assert.Equal(t, computebudget.ProgramID, programs[1])
	assert.Equal(t, solana.SystemProgramID, programs[2])
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programs[3])
	assert.Equal(t, solana.MPK(testProgramID), programs[4])
	assert.Equal(t, solana.TokenProgramID, programs[5])

	// The funding transfer carries rawAmount plus the rent-exempt minimum.
	fundData := []byte(tx.Message.Instructions[2].Data)
	require.Len(t, fundData, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(fundData[:4]))
	assert.Equal(t, rawAmount+testRentExempt, binary.LittleEndian.Uint64(fundData[4:]))

	swapData := []byte(tx.Message.Instructions[4].Data)
	assert.Equal(t, byte(SwapBaseOutOpcode), swapData[0])
}

func TestSwapSendFailure(t *testing.T) {
	record := testPoolRecord()
	rejection := &blockchain.TransactionRejectedError{
		Logs: []string{"Program log: custom program error: 0x28"},
		Err:  errors.New("simulation failed"),
	}
	client := &fakeChainClient{sendErr: rejection}
	swapper := newTestSwapper(t, client, record)

	_, err := swapper.Swap(context.Background(), record.ID, 100, DirectionBuy)
	require.Error(t, err)

	var rejected *blockchain.TransactionRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Error(), "0x28")
}

func TestSwapConfirmationFailure(t *testing.T) {
	record := testPoolRecord()
	client := &fakeChainClient{
		confirmErr: &blockchain.ConfirmationTimeoutError{},
	}
	swapper := newTestSwapper(t, client, record)

	sig, err := swapper.Swap(context.Background(), record.ID, 100, DirectionBuy)
	require.Error(t, err)

	var timeoutErr *blockchain.ConfirmationTimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	// The signature is still surfaced so the caller can track it.
	assert.NotEqual(t, solana.Signature{}, sig)
}

func TestSwapMissingPoolFields(t *testing.T) {
	record := testPoolRecord()
	record.MarketBids = ""
	client := &fakeChainClient{}
	swapper := newTestSwapper(t, client, record)

	_, err := swapper.Swap(context.Background(), record.ID, 100, DirectionBuy)
	require.Error(t, err)

	var tokenErr *InvalidTokenDataError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "marketBids", tokenErr.Field)
	assert.Empty(t, client.sentTxs)
}
