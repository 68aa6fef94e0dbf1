// internal/blockchain/solana/client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
)

const confirmPollInterval = 500 * time.Millisecond

// Client implements blockchain.Client over one RPC node and its
// websocket endpoint.
type Client struct {
	rpc            *rpc.Client
	ws             *ws.Client
	logger         *zap.Logger
	confirmTimeout time.Duration
}

// NewClient connects to the RPC and websocket endpoints and verifies the
// node responds before returning.
func NewClient(ctx context.Context, rpcURL, wsURL string, confirmTimeout time.Duration, logger *zap.Logger) (*Client, error) {
	rpcClient := rpc.New(rpcURL)

	version, err := rpcClient.GetVersion(ctx)
	if err != nil {
		return nil, &blockchain.RPCError{Method: "getVersion", Err: err}
	}

	wsClient, err := ws.Connect(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect websocket %s: %w", wsURL, err)
	}

	logger.Debug("Connected to RPC",
		zap.String("url", rpcURL),
		zap.String("solana_core", version.SolanaCore))

	return &Client{
		rpc:            rpcClient,
		ws:             wsClient,
		logger:         logger.Named("chain"),
		confirmTimeout: confirmTimeout,
	}, nil
}

// Close tears down the websocket connection.
func (c *Client) Close() {
	c.ws.Close()
}

func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, &blockchain.RPCError{Method: "getLatestBlockhash", Err: err}
	}
	return result.Value.Blockhash, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, &blockchain.RPCError{Method: "getAccountInfo", Err: err}
	}
	return result, nil
}

func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		return 0, &blockchain.RPCError{Method: "getBalance", Err: err}
	}
	return result.Value, nil
}

func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, &blockchain.RPCError{Method: "getMinimumBalanceForRentExemption", Err: err}
	}
	return lamports, nil
}

func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, &blockchain.RPCError{Method: "getTransaction", Err: err}
	}
	return result, nil
}

// SendTransaction submits the signed transaction. A node-side rejection is
// returned as TransactionRejectedError with the program logs attached;
// transport failures come back as RPCError.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			logs := extractProgramLogs(rpcErr)
			c.logger.Error("Transaction rejected by node",
				zap.Int("code", rpcErr.Code),
				zap.Strings("logs", logs))
			return solana.Signature{}, &blockchain.TransactionRejectedError{Logs: logs, Err: err}
		}
		return solana.Signature{}, &blockchain.RPCError{Method: "sendTransaction", Err: err}
	}
	return sig, nil
}

// WaitForTransactionConfirmation polls signature statuses until the
// transaction reaches the requested commitment or the configured bound
// expires.
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	deadline := time.After(c.confirmTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return &blockchain.ConfirmationTimeoutError{Signature: signature, Timeout: c.confirmTimeout}
		case <-ticker.C:
			statuses, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return &blockchain.TransactionRejectedError{
					Signature: signature,
					Err:       fmt.Errorf("transaction failed on chain: %v", status.Err),
				}
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized ||
				(commitment != rpc.CommitmentFinalized && status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed) {
				return nil
			}
		}
	}
}

// extractProgramLogs pulls the simulation logs out of a jsonrpc error
// payload, when the node included them.
func extractProgramLogs(rpcErr *jsonrpc.RPCError) []string {
	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	rawLogs, ok := dataMap["logs"].([]interface{})
	if !ok {
		return nil
	}
	logs := make([]string, 0, len(rawLogs))
	for _, entry := range rawLogs {
		if line, ok := entry.(string); ok {
			logs = append(logs, line)
		}
	}
	return logs
}

var _ blockchain.Client = (*Client)(nil)
