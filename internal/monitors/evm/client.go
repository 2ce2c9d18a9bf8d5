package evm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Client is the Ethereum RPC surface the monitor depends on
type Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*EthereumBlockDetails, error)
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	CodeAt(ctx context.Context, address string) ([]byte, error)
}

var _ Client = (*RPCClient)(nil)

// RPCClient implements Client with go-ethereum. Blocks are fetched through the
// raw RPC client so the sender of every transaction comes straight from the
// node instead of being recovered from signatures.
type RPCClient struct {
	rpc *gethrpc.Client
	eth *ethclient.Client
}

// Dial connects to endpoint and verifies the node answers eth_chainId
func Dial(ctx context.Context, endpoint string, httpClient *http.Client) (*RPCClient, error) {
	rc, err := gethrpc.DialOptions(ctx, endpoint, gethrpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial Ethereum RPC: %w", err)
	}

	c := &RPCClient{rpc: rc, eth: ethclient.NewClient(rc)}
	if _, err := c.eth.ChainID(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to connect to Ethereum network: %w", err)
	}
	return c, nil
}

func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *RPCClient) BlockByNumber(ctx context.Context, number uint64) (*EthereumBlockDetails, error) {
	var block *EthereumBlockDetails
	if err := c.rpc.CallContext(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, number)
	}
	return block, nil
}

func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}

	out := &Receipt{GasUsed: receipt.GasUsed}
	if receipt.ContractAddress != (common.Address{}) {
		out.ContractAddress = receipt.ContractAddress.Hex()
	}
	return out, nil
}

func (c *RPCClient) CodeAt(ctx context.Context, address string) ([]byte, error) {
	return c.eth.CodeAt(ctx, common.HexToAddress(address), nil)
}

func (c *RPCClient) Close() {
	c.rpc.Close()
}
