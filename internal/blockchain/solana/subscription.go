// internal/blockchain/solana/subscription.go
package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/Giovannithea/BOT-V8.2/internal/blockchain"
)

// SubscribeVault opens a websocket subscription for account changes on the
// given vault. The caller owns the subscription and must Unsubscribe.
func (c *Client) SubscribeVault(ctx context.Context, vault solana.PublicKey) (blockchain.VaultSubscription, error) {
	sub, err := c.ws.AccountSubscribeWithOpts(vault, rpc.CommitmentConfirmed, solana.EncodingBase64)
	if err != nil {
		return nil, &blockchain.SubscriptionError{Account: vault, Err: err}
	}
	return &vaultSubscription{account: vault, sub: sub}, nil
}

type vaultSubscription struct {
	account solana.PublicKey
	sub     *ws.AccountSubscription
}

func (s *vaultSubscription) Recv(ctx context.Context) (uint64, error) {
	got, err := s.sub.Recv(ctx)
	if err != nil {
		return 0, &blockchain.SubscriptionError{Account: s.account, Err: err}
	}
	return got.Value.Lamports, nil
}

func (s *vaultSubscription) Unsubscribe() {
	s.sub.Unsubscribe()
}

// SubscribeLogs subscribes to log notifications mentioning the program.
func (c *Client) SubscribeLogs(ctx context.Context, program solana.PublicKey) (blockchain.LogsSubscription, error) {
	sub, err := c.ws.LogsSubscribeMentions(program, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, &blockchain.SubscriptionError{Account: program, Err: err}
	}
	return &logsSubscription{program: program, sub: sub}, nil
}

type logsSubscription struct {
	program solana.PublicKey
	sub     *ws.LogSubscription
}

func (s *logsSubscription) Recv(ctx context.Context) (*blockchain.LogsEvent, error) {
	got, err := s.sub.Recv(ctx)
	if err != nil {
		return nil, &blockchain.SubscriptionError{Account: s.program, Err: err}
	}
	return &blockchain.LogsEvent{
		Signature: got.Value.Signature,
		Logs:      got.Value.Logs,
		Err:       got.Value.Err,
	}, nil
}

func (s *logsSubscription) Unsubscribe() {
	s.sub.Unsubscribe()
}
