package models

import (
	"time"
)

// TokenCreationReport is emitted for every non-NONE classification
type TokenCreationReport struct {
	Chain          BlockchainName `json:"chain"`
	Classification Classification `json:"classification"`
	TxHash         string         `json:"tx_hash"`
	// InstructionIndex is the position of the matching instruction, zero for Ethereum
	InstructionIndex int       `json:"instruction_index"`
	BlockTime        *int64    `json:"block_time,omitempty"`
	FormattedTime    string    `json:"formatted_time"`
	Accounts         []string  `json:"accounts,omitempty"`
	CreatorAccounts  []string  `json:"creator_accounts,omitempty"`
	Creator          string    `json:"creator,omitempty"`
	ContractAddress  string    `json:"contract_address,omitempty"`
	ConfirmedERC20   bool      `json:"confirmed_erc20"`
	GasUsed          uint64    `json:"gas_used,omitempty"`
	ExplorerURL      string    `json:"explorer_url"`
	DetectedAt       time.Time `json:"detected_at"`
}

// CycleStats summarises one PollOnce call
type CycleStats struct {
	Units   int // addresses or blocks scanned
	Seen    int // activity entries returned by the RPC
	New     int // entries not previously known
	Reports int
	Errors  int
}
