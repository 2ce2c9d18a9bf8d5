package evm

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrBlockNotFound is returned when the node answers null for a block
	ErrBlockNotFound = errors.New("block not found")
	// ErrReceiptNotFound is returned when a transaction has no receipt yet
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrMalformedTransaction is returned for transactions missing a hash or sender
	ErrMalformedTransaction = errors.New("malformed transaction")
)

// EthereumBlockDetails is eth_getBlockByNumber with full transactions
type EthereumBlockDetails struct {
	Hash         string                `json:"hash"`
	Number       hexutil.Uint64        `json:"number"`
	Timestamp    hexutil.Uint64        `json:"timestamp"`
	Transactions []EthereumTransaction `json:"transactions"`
}

// EthereumTransaction is a transaction object inside a full block. To is nil
// for contract deployments.
type EthereumTransaction struct {
	Hash string         `json:"hash"`
	From string         `json:"from"`
	To   *string        `json:"to"`
	Gas  hexutil.Uint64 `json:"gas"`
}

// IsContractCreation reports whether the transaction has no recipient
func (tx EthereumTransaction) IsContractCreation() bool {
	return tx.To == nil || *tx.To == ""
}

// Receipt is the subset of a transaction receipt used for deployments
type Receipt struct {
	ContractAddress string
	GasUsed         uint64
}
