package monitors

import (
	"fmt"
	"time"

	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"
	"token-monitor/internal/observability"

	"github.com/rs/zerolog"
)

// BaseMonitor contains common fields and methods for all chain monitors
type BaseMonitor struct {
	BlockchainName  models.BlockchainName
	Addresses       []string
	ExplorerBaseURL string
	EventEmitter    interfaces.EventEmitter
	Logger          *zerolog.Logger
	Metrics         *observability.Metrics
	Known           *KnownSet

	now func() time.Time
}

func NewBaseMonitor(blockchain models.BlockchainName, addresses []string, explorerBaseURL string, logger *zerolog.Logger, emitter interfaces.EventEmitter, metrics *observability.Metrics) *BaseMonitor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BaseMonitor{
		BlockchainName:  blockchain,
		Addresses:       append([]string(nil), addresses...),
		ExplorerBaseURL: explorerBaseURL,
		EventEmitter:    emitter,
		Logger:          logger,
		Metrics:         metrics,
		Known:           NewKnownSet(),
		now:             time.Now,
	}
}

func (b *BaseMonitor) GetChainName() models.BlockchainName {
	return b.BlockchainName
}

func (b *BaseMonitor) KnownTransactions() int {
	return b.Known.Len()
}

func (b *BaseMonitor) GetExplorerURL(txHash string) string {
	return fmt.Sprintf("%s%s", b.ExplorerBaseURL, txHash)
}

// Now returns the detection timestamp for reports
func (b *BaseMonitor) Now() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}

// MarkNew inserts txID into the known set before it is processed. It returns
// false when the id was already evaluated in an earlier poll.
func (b *BaseMonitor) MarkNew(txID string) bool {
	isNew := b.Known.Add(txID)
	if isNew {
		b.Metrics.SetKnownTransactions(b.BlockchainName.String(), b.Known.Len())
	}
	return isNew
}

// RecordRPCError logs a recoverable failure and counts it against operation
func (b *BaseMonitor) RecordRPCError(operation string, err error) *zerolog.Event {
	b.Metrics.ObserveRPCError(b.BlockchainName.String(), operation)
	return b.Logger.Error().Err(err).Str("operation", operation)
}

// Emit hands a report to the configured emitter. Emitter failures are logged
// and never abort the poll.
func (b *BaseMonitor) Emit(report models.TokenCreationReport) {
	b.Metrics.ObserveReport(b.BlockchainName.String(), report.Classification.String())

	if b.EventEmitter == nil {
		b.Logger.Warn().Msg("EventEmitter is nil, cannot emit event")
		return
	}
	if err := b.EventEmitter.EmitEvent(report); err != nil {
		b.Logger.Error().
			Err(err).
			Str("txHash", report.TxHash).
			Str("classification", report.Classification.String()).
			Msg("Error emitting token creation report")
	}
}
