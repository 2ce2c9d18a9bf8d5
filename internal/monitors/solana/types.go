package solana

import (
	"errors"
)

var (
	// ErrTransactionNotFound is returned when the node has no data for a signature
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrMalformedTransaction is returned when a response lacks expected fields
	ErrMalformedTransaction = errors.New("malformed transaction response")
)

// SignatureInfo is one entry of getSignaturesForAddress
type SignatureInfo struct {
	Signature string
	BlockTime *int64
}

// Transaction is the decoded subset of getTransaction the monitor needs
type Transaction struct {
	Signature    string
	BlockTime    *int64
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction is a compiled instruction with its indexes resolved to keys
type Instruction struct {
	ProgramID string
	Accounts  []string
}
