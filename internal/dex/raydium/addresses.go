// internal/dex/raydium/addresses.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// DerivedAddresses are the program-owned accounts of a Raydium V4 pool.
// They are a pure function of (marketID, programID) and are recomputed on
// demand rather than stored.
type DerivedAddresses struct {
	AmmAuthority solana.PublicKey
	AmmID        solana.PublicKey
	CoinVault    solana.PublicKey
	PcVault      solana.PublicKey
}

// DeriveAddresses computes the pool authority, pool id and both vaults
// from the serum market id and the AMM program id. Deterministic: the same
// inputs always yield the same four addresses.
func DeriveAddresses(marketID, programID string) (*DerivedAddresses, error) {
	market, err := solana.PublicKeyFromBase58(marketID)
	if err != nil {
		return nil, &AddressDerivationError{Field: "marketId", Value: marketID, Err: err}
	}
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, &AddressDerivationError{Field: "programId", Value: programID, Err: err}
	}
	return deriveAddresses(market, program)
}

func deriveAddresses(market, program solana.PublicKey) (*DerivedAddresses, error) {
	authority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(AmmAuthoritySeed)},
		program,
	)
	if err != nil {
		return nil, &AddressDerivationError{Field: "ammAuthority", Value: market.String(), Err: err}
	}

	derive := func(seed string) (solana.PublicKey, error) {
		addr, _, err := solana.FindProgramAddress(
			[][]byte{[]byte(seed), market.Bytes(), program.Bytes()},
			program,
		)
		if err != nil {
			return solana.PublicKey{}, &AddressDerivationError{Field: seed, Value: market.String(), Err: err}
		}
		return addr, nil
	}

	ammID, err := derive(AmmIDSeed)
	if err != nil {
		return nil, err
	}
	coinVault, err := derive(CoinVaultSeed)
	if err != nil {
		return nil, err
	}
	pcVault, err := derive(PcVaultSeed)
	if err != nil {
		return nil, err
	}

	return &DerivedAddresses{
		AmmAuthority: authority,
		AmmID:        ammID,
		CoinVault:    coinVault,
		PcVault:      pcVault,
	}, nil
}
