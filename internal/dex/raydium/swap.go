// internal/dex/raydium/swap.go
package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
	"github.com/Giovannithea/BOT-V8.2/internal/storage"
	"github.com/Giovannithea/BOT-V8.2/internal/wallet"
)

// SwapConfig bounds every transaction the orchestrator assembles.
type SwapConfig struct {
	AmmProgramID     solana.PublicKey
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64 // micro-lamports per compute unit
	MaxAmountRaw     uint64
}

// Swapper assembles, submits and confirms swap transactions. It performs
// no retries; retry policy belongs to the caller.
type Swapper struct {
	client blockchain.Client
	wallet *wallet.Wallet
	pools  storage.Store
	config SwapConfig
	logger *zap.Logger
}

func NewSwapper(client blockchain.Client, w *wallet.Wallet, pools storage.Store, config SwapConfig, logger *zap.Logger) *Swapper {
	return &Swapper{
		client: client,
		wallet: w,
		pools:  pools,
		config: config,
		logger: logger.Named("swapper"),
	}
}

// Swap executes one swap against the pool identified by poolID. The pool
// record is refetched on every call so staleness is bounded by one round
// trip. Irreversible once confirmed.
func (s *Swapper) Swap(ctx context.Context, poolID string, rawAmount uint64, direction Direction) (solana.Signature, error) {
	if rawAmount == 0 || rawAmount > s.config.MaxAmountRaw {
		return solana.Signature{}, &ValidationError{Amount: rawAmount, Ceiling: s.config.MaxAmountRaw}
	}

	record, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch pool record: %w", err)
	}

	instructions, err := s.buildInstructions(ctx, record, rawAmount, direction)
	if err != nil {
		return solana.Signature{}, err
	}

	// A bare swap with no compute-budget directive must never go out.
	if len(instructions) < 2 {
		return solana.Signature{}, &MalformedTransactionError{
			Reason: fmt.Sprintf("only %d instructions assembled", len(instructions)),
		}
	}

	blockhash, err := s.client.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(s.wallet.PublicKey))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.wallet.SignTransaction(tx); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}

	s.logger.Info("Swap submitted",
		zap.String("pool_id", poolID),
		zap.String("direction", direction.String()),
		zap.Uint64("raw_amount", rawAmount),
		zap.String("signature", sig.String()))

	if err := s.client.WaitForTransactionConfirmation(ctx, sig, rpc.CommitmentConfirmed); err != nil {
		return sig, err
	}

	return sig, nil
}

// buildInstructions assembles the ordered plan: compute-budget directives
// first, then the optional WSOL wrap prelude, the swap, and the optional
// unwrap postlude.
func (s *Swapper) buildInstructions(ctx context.Context, record *storage.PoolRecord, rawAmount uint64, direction Direction) ([]solana.Instruction, error) {
	if err := ValidateTokenData(record); err != nil {
		return nil, err
	}

	derived, err := DeriveAddresses(record.MarketID, s.config.AmmProgramID.String())
	if err != nil {
		return nil, err
	}

	mint, err := validatePublicKey("tokenAddress", record.TokenAddress)
	if err != nil {
		return nil, err
	}

	tokenATA, err := s.wallet.GetATA(mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token account: %w", err)
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(s.config.ComputeUnitLimit).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(s.config.ComputeUnitPrice).Build(),
	}

	userSource := tokenATA
	var postlude []solana.Instruction

	if mint.Equals(WrappedSolMint) {
		wrap, closeIx, err := s.buildWrapInstructions(ctx, tokenATA, rawAmount)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, wrap...)
		postlude = append(postlude, closeIx)
	}

	swapIx, err := BuildSwapInstruction(
		record, derived,
		userSource, tokenATA, s.wallet.PublicKey,
		rawAmount, direction,
		s.config.AmmProgramID,
	)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, swapIx)
	instructions = append(instructions, postlude...)

	return instructions, nil
}

// buildWrapInstructions funds and creates the temporary wrapped-SOL
// account and returns the trailing close that refunds the remainder. Both
// halves ride in the same transaction as the swap so a failure rolls the
// wrap back atomically.
func (s *Swapper) buildWrapInstructions(ctx context.Context, wsolAccount solana.PublicKey, rawAmount uint64) ([]solana.Instruction, solana.Instruction, error) {
	rentExempt, err := s.client.GetMinimumBalanceForRentExemption(ctx, TokenAccountSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rent-exempt minimum: %w", err)
	}

	fundIx := system.NewTransferInstruction(
		rawAmount+rentExempt,
		s.wallet.PublicKey,
		wsolAccount,
	).Build()

	createIx, err := s.wallet.CreateAssociatedTokenAccountIdempotentInstruction(
		s.wallet.PublicKey, s.wallet.PublicKey, WrappedSolMint,
	)
	if err != nil {
		return nil, nil, err
	}

	closeIx := token.NewCloseAccountInstruction(
		wsolAccount,
		s.wallet.PublicKey,
		s.wallet.PublicKey,
		nil,
	).Build()

	return []solana.Instruction{fundIx, createIx}, closeIx, nil
}
