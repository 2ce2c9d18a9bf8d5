package solana

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	solanago "github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Client is the Solana RPC surface the monitor depends on
type Client interface {
	GetSignatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

var _ Client = (*RPCClient)(nil)

// RPCClient implements Client on top of solana-go
type RPCClient struct {
	rpc *solanarpc.Client
}

func NewRPCClient(endpoint string, httpClient *http.Client) *RPCClient {
	opts := &jsonrpc.RPCClientOpts{HTTPClient: httpClient}
	return &RPCClient{
		rpc: solanarpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, opts)),
	}
}

// Dial creates a client and verifies the node answers
func Dial(ctx context.Context, endpoint string, httpClient *http.Client) (*RPCClient, error) {
	c := NewRPCClient(endpoint, httpClient)
	version, err := c.rpc.GetVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Solana RPC: %w", err)
	}
	if version == nil {
		return nil, errors.New("failed to connect to Solana RPC: empty getVersion response")
	}
	return c, nil
}

func (c *RPCClient) GetSignatures(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	pubkey, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", address, err)
	}

	out, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pubkey, &solanarpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	})
	if err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, 0, len(out))
	for _, s := range out {
		if s == nil {
			continue
		}
		info := SignatureInfo{Signature: s.Signature.String()}
		if s.BlockTime != nil {
			bt := int64(*s.BlockTime)
			info.BlockTime = &bt
		}
		sigs = append(sigs, info)
	}
	return sigs, nil
}

func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	sig, err := solanago.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %s: %w", signature, err)
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &solanarpc.GetTransactionOpts{
		Encoding:                       solanago.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if errors.Is(err, solanarpc.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Transaction == nil {
		return nil, ErrTransactionNotFound
	}

	decoded, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	if decoded == nil {
		return nil, ErrMalformedTransaction
	}

	tx := &Transaction{Signature: signature}
	if out.BlockTime != nil {
		bt := int64(*out.BlockTime)
		tx.BlockTime = &bt
	}

	keys := decoded.Message.AccountKeys
	tx.AccountKeys = make([]string, len(keys))
	for i, key := range keys {
		tx.AccountKeys[i] = key.String()
	}

	// Program ids are always static keys; instruction accounts loaded from
	// address lookup tables are left unresolved.
	for _, inst := range decoded.Message.Instructions {
		resolved := Instruction{ProgramID: keyAt(tx.AccountKeys, int(inst.ProgramIDIndex))}
		for _, idx := range inst.Accounts {
			if key := keyAt(tx.AccountKeys, int(idx)); key != "" {
				resolved.Accounts = append(resolved.Accounts, key)
			}
		}
		tx.Instructions = append(tx.Instructions, resolved)
	}

	return tx, nil
}

func keyAt(keys []string, idx int) string {
	if idx < 0 || idx >= len(keys) {
		return ""
	}
	return keys[idx]
}
