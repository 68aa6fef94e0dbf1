// internal/dex/raydium/errors.go
package raydium

import (
	"fmt"
)

// AddressDerivationError means a market or program identifier was not a
// well-formed 32-byte public key.
type AddressDerivationError struct {
	Field string
	Value string
	Err   error
}

func (e *AddressDerivationError) Error() string {
	return fmt.Sprintf("address derivation failed: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *AddressDerivationError) Unwrap() error { return e.Err }

// InvalidTokenDataError means the pool record is missing fields the swap
// instruction needs. Checked before address derivation so the failure
// names the actual gap instead of cascading.
type InvalidTokenDataError struct {
	Field string
}

func (e *InvalidTokenDataError) Error() string {
	return fmt.Sprintf("invalid token data: missing %s", e.Field)
}

// EncodingError is a programmer error: a direction value with no opcode
// mapping reached the encoder.
type EncodingError struct {
	Direction Direction
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed: unsupported swap direction %d", e.Direction)
}

// MalformedTransactionError means the assembled plan violated a structural
// invariant and was never submitted.
type MalformedTransactionError struct {
	Reason string
}

func (e *MalformedTransactionError) Error() string {
	return fmt.Sprintf("malformed transaction: %s", e.Reason)
}

// ValidationError rejects a swap amount before any network work happens.
type ValidationError struct {
	Amount  uint64
	Ceiling uint64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid swap amount %d: must be positive and at most %d", e.Amount, e.Ceiling)
}
