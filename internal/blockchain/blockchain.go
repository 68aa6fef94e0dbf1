// internal/blockchain/blockchain.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is the chain-facing boundary shared by the orchestrator, the
// position monitors and the pool listener. The connection behind it is
// long-lived and never mutated after initialization.
type Client interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error
	SubscribeVault(ctx context.Context, vault solana.PublicKey) (VaultSubscription, error)
	SubscribeLogs(ctx context.Context, program solana.PublicKey) (LogsSubscription, error)
}

// VaultSubscription delivers lamport balances of a watched account, one
// per on-chain change notification.
type VaultSubscription interface {
	// Recv blocks until the next account update and returns its lamports.
	Recv(ctx context.Context) (uint64, error)
	Unsubscribe()
}

// LogsEvent is one program-log notification.
type LogsEvent struct {
	Signature solana.Signature
	Logs      []string
	Err       interface{}
}

// LogsSubscription delivers log notifications mentioning a program.
type LogsSubscription interface {
	Recv(ctx context.Context) (*LogsEvent, error)
	Unsubscribe()
}
