// internal/blockchain/errors.go
package blockchain

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// RPCError wraps a transport-level failure talking to the RPC node. It is
// surfaced to the caller as-is; retry policy lives above the core.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s failed: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// TransactionRejectedError is a chain-level program rejection. The program
// logs are the only actionable diagnostic, so they are carried verbatim.
type TransactionRejectedError struct {
	Signature solana.Signature
	Logs      []string
	Err       error
}

func (e *TransactionRejectedError) Error() string {
	if len(e.Logs) == 0 {
		return fmt.Sprintf("transaction rejected: %v", e.Err)
	}
	return fmt.Sprintf("transaction rejected: %v\nprogram logs:\n%s", e.Err, strings.Join(e.Logs, "\n"))
}

func (e *TransactionRejectedError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError means the transaction was submitted but no
// confirmation was observed within the configured bound.
type ConfirmationTimeoutError struct {
	Signature solana.Signature
	Timeout   time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("no confirmation for %s within %s", e.Signature.String(), e.Timeout)
}

// SubscriptionError is a push-channel setup or delivery failure.
type SubscriptionError struct {
	Account solana.PublicKey
	Err     error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %s failed: %v", e.Account.String(), e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
