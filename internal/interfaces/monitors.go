package interfaces

import (
	"context"

	"token-monitor/internal/models"
)

// ChainMonitor polls one chain for token creation activity
type ChainMonitor interface {
	// GetChainName returns the name of the blockchain
	GetChainName() models.BlockchainName

	// PollOnce runs a single scan of the chain's recent activity. Per-address
	// and per-block failures are logged and absorbed; only context
	// cancellation is returned as an error.
	PollOnce(ctx context.Context) (models.CycleStats, error)

	// KnownTransactions reports the size of the dedup set
	KnownTransactions() int
}
