// internal/eventlistener/extract.go
package eventlistener

import (
	"context"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/Giovannithea/BOT-V8.2/internal/dex/raydium"
	"github.com/Giovannithea/BOT-V8.2/internal/dex/serum"
	"github.com/Giovannithea/BOT-V8.2/internal/storage"
)

// Account positions inside the AMM initialize2 instruction.
const (
	idxAmmID         = 4
	idxAmmAuthority  = 5
	idxAmmOpenOrders = 6
	idxCoinMint      = 8
	idxPcMint        = 9
	idxCoinVault     = 10
	idxPcVault       = 11
	idxMarketProgram = 16
	idxMarketID      = 17

	initMinAccounts = 18
)

// extractPool turns a confirmed pool-creation transaction into a
// persistable record. It resolves the serum market sidecar accounts and
// seeds the pool constants from the initial vault balances.
func (l *Listener) extractPool(ctx context.Context, tx *solana.Transaction) (*storage.PoolRecord, error) {
	keys := tx.Message.AccountKeys

	var init *solana.CompiledInstruction
	for i := range tx.Message.Instructions {
		ix := &tx.Message.Instructions[i]
		program, err := tx.Message.Program(ix.ProgramIDIndex)
		if err != nil {
			continue
		}
		if program.Equals(l.programID) && len(ix.Accounts) >= initMinAccounts {
			init = ix
			break
		}
	}
	if init == nil {
		return nil, fmt.Errorf("no initialize instruction for program %s", l.programID)
	}

	account := func(pos int) (solana.PublicKey, error) {
		idx := init.Accounts[pos]
		if int(idx) >= len(keys) {
			return solana.PublicKey{}, fmt.Errorf("account index %d out of range", idx)
		}
		return keys[idx], nil
	}

	var (
		coinMint, pcMint     solana.PublicKey
		coinVault, pcVault   solana.PublicKey
		openOrders, marketID solana.PublicKey
		marketProgram        solana.PublicKey
		err                  error
	)
	for _, bind := range []struct {
		pos int
		dst *solana.PublicKey
	}{
		{idxAmmOpenOrders, &openOrders},
		{idxCoinMint, &coinMint},
		{idxPcMint, &pcMint},
		{idxCoinVault, &coinVault},
		{idxPcVault, &pcVault},
		{idxMarketProgram, &marketProgram},
		{idxMarketID, &marketID},
	} {
		if *bind.dst, err = account(bind.pos); err != nil {
			return nil, err
		}
	}

	// Only pools quoted against SOL are tradable by this bot.
	var tokenMint, tokenVault, solVault solana.PublicKey
	switch {
	case coinMint.Equals(raydium.WrappedSolMint):
		tokenMint, tokenVault, solVault = pcMint, pcVault, coinVault
	case pcMint.Equals(raydium.WrappedSolMint):
		tokenMint, tokenVault, solVault = coinMint, coinVault, pcVault
	default:
		return nil, fmt.Errorf("pool has no SOL side (coin %s, pc %s)", coinMint, pcMint)
	}

	market, err := l.fetchMarketState(ctx, marketID)
	if err != nil {
		return nil, err
	}
	marketAuthority, err := serum.VaultSigner(marketID, marketProgram, market.VaultSignerNonce)
	if err != nil {
		return nil, err
	}

	decimals, err := l.fetchMintDecimals(ctx, tokenMint)
	if err != nil {
		return nil, err
	}

	solRaw, err := l.fetchTokenBalance(ctx, solVault)
	if err != nil {
		return nil, err
	}
	tokenRaw, err := l.fetchTokenBalance(ctx, tokenVault)
	if err != nil {
		return nil, err
	}
	if solRaw == 0 || tokenRaw == 0 {
		return nil, fmt.Errorf("pool vaults are empty")
	}

	solBalance := float64(solRaw) / float64(raydium.LamportsPerSOL)
	tokenBalance := float64(tokenRaw) / math.Pow(10, float64(decimals))

	return &storage.PoolRecord{
		MarketID:         marketID.String(),
		AmmOpenOrders:    openOrders.String(),
		MarketProgramID:  marketProgram.String(),
		MarketBids:       market.Bids.String(),
		MarketAsks:       market.Asks.String(),
		MarketEventQueue: market.EventQueue.String(),
		MarketBaseVault:  market.BaseVault.String(),
		MarketQuoteVault: market.QuoteVault.String(),
		MarketAuthority:  marketAuthority.String(),
		TokenAddress:     tokenMint.String(),
		Decimals:         decimals,
		SolVault:         solVault.String(),
		K:                solBalance * tokenBalance,
		V:                solBalance / tokenBalance,
	}, nil
}

func (l *Listener) fetchMarketState(ctx context.Context, marketID solana.PublicKey) (*serum.MarketState, error) {
	data, err := l.fetchAccountData(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", marketID, err)
	}
	return serum.DecodeMarketState(data)
}

func (l *Listener) fetchMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	data, err := l.fetchAccountData(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("mint %s: %w", mint, err)
	}
	var state token.Mint
	if err := bin.NewBinDecoder(data).Decode(&state); err != nil {
		return 0, fmt.Errorf("decode mint %s: %w", mint, err)
	}
	return state.Decimals, nil
}

func (l *Listener) fetchTokenBalance(ctx context.Context, vault solana.PublicKey) (uint64, error) {
	data, err := l.fetchAccountData(ctx, vault)
	if err != nil {
		return 0, fmt.Errorf("vault %s: %w", vault, err)
	}
	var state token.Account
	if err := bin.NewBinDecoder(data).Decode(&state); err != nil {
		return 0, fmt.Errorf("decode vault %s: %w", vault, err)
	}
	return state.Amount, nil
}

func (l *Listener) fetchAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	result, err := l.client.GetAccountInfo(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("account not found")
	}
	data := result.Value.Data.GetBinary()
	if len(data) == 0 {
		return nil, fmt.Errorf("account has no data")
	}
	return data, nil
}
