package evm

import (
	"context"
	"iter"
	"strings"

	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"
	"token-monitor/internal/monitors"
	"token-monitor/internal/timefmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var _ interfaces.ChainMonitor = (*EthereumMonitor)(nil)

const contractCreationDiscriminator = "contract creation"

// Config is the static configuration of an EthereumMonitor
type Config struct {
	// BlocksToScan is how far behind the head each poll looks
	BlocksToScan uint64
	// EventSignatures are canonical event signatures such as
	// "Transfer(address,address,uint256)"
	EventSignatures []string
}

type EthereumMonitor struct {
	*monitors.BaseMonitor
	client          Client
	blocksToScan    uint64
	signatureHashes []string
	watched         map[string]struct{}
}

func NewEthereumMonitor(baseMonitor *monitors.BaseMonitor, client Client, cfg Config) *EthereumMonitor {
	watched := make(map[string]struct{}, len(baseMonitor.Addresses))
	for _, addr := range baseMonitor.Addresses {
		watched[strings.ToLower(addr)] = struct{}{}
	}
	return &EthereumMonitor{
		BaseMonitor:     baseMonitor,
		client:          client,
		blocksToScan:    cfg.BlocksToScan,
		signatureHashes: SignatureHashes(cfg.EventSignatures),
		watched:         watched,
	}
}

// SignatureHashes returns the keccak256 topic of each event signature as
// lowercase hex without the 0x prefix.
func SignatureHashes(signatures []string) []string {
	hashes := make([]string, 0, len(signatures))
	for _, sig := range signatures {
		hashes = append(hashes, strings.TrimPrefix(crypto.Keccak256Hash([]byte(sig)).Hex(), "0x"))
	}
	return hashes
}

// ContainsTokenSignature searches the hex encoding of code for any of the
// given signature hashes. This is a substring heuristic: it does not prove the
// contract implements the interface.
func ContainsTokenSignature(code []byte, hashes []string) bool {
	if len(code) == 0 {
		return false
	}
	codeHex := common.Bytes2Hex(code)
	for _, h := range hashes {
		if strings.Contains(codeHex, strings.ToLower(h)) {
			return true
		}
	}
	return false
}

// blockTx is a transaction together with the block it was found in
type blockTx struct {
	blockNumber uint64
	timestamp   int64
	tx          EthereumTransaction
}

// PollOnce scans the last BlocksToScan blocks up to the current head and
// reports contract deployments sent by monitored addresses.
func (e *EthereumMonitor) PollOnce(ctx context.Context) (models.CycleStats, error) {
	var stats models.CycleStats
	if len(e.Addresses) == 0 {
		return stats, nil
	}

	latest, err := e.client.BlockNumber(ctx)
	if err != nil {
		stats.Errors++
		e.RecordRPCError("eth_blockNumber", err).Msg("Failed to get current Ethereum block")
		return stats, ctx.Err()
	}

	for item := range e.unseen(e.blockWindow(ctx, latest, &stats), &stats) {
		if e.processTransaction(ctx, item, &stats) {
			stats.Reports++
		}
	}

	return stats, ctx.Err()
}

// blockWindow yields the transactions of blocks [latest-BlocksToScan, latest]
// in ascending block order. A block that cannot be fetched is logged and
// skipped.
func (e *EthereumMonitor) blockWindow(ctx context.Context, latest uint64, stats *models.CycleStats) iter.Seq[blockTx] {
	from := uint64(0)
	if latest > e.blocksToScan {
		from = latest - e.blocksToScan
	}

	return func(yield func(blockTx) bool) {
		for number := from; number <= latest; number++ {
			if ctx.Err() != nil {
				return
			}
			stats.Units++

			block, err := e.client.BlockByNumber(ctx, number)
			if err != nil {
				stats.Errors++
				e.RecordRPCError("eth_getBlockByNumber", err).
					Uint64("blockNumber", number).
					Msg("Failed to fetch Ethereum block")
				continue
			}

			e.Logger.Debug().
				Uint64("blockNumber", number).
				Int("transactionCount", len(block.Transactions)).
				Msg("Processing Ethereum block")

			for _, tx := range block.Transactions {
				stats.Seen++
				if !yield(blockTx{blockNumber: number, timestamp: int64(block.Timestamp), tx: tx}) {
					return
				}
			}
		}
	}
}

// unseen drops transactions already evaluated and records the rest as known
// before they are processed.
func (e *EthereumMonitor) unseen(seq iter.Seq[blockTx], stats *models.CycleStats) iter.Seq[blockTx] {
	return func(yield func(blockTx) bool) {
		for item := range seq {
			txHash := strings.ToLower(item.tx.Hash)
			if txHash == "" {
				stats.Errors++
				e.Logger.Warn().
					Err(ErrMalformedTransaction).
					Uint64("blockNumber", item.blockNumber).
					Msg("Skipping transaction without hash")
				continue
			}
			if !e.MarkNew(txHash) {
				continue
			}
			stats.New++
			if !yield(item) {
				return
			}
		}
	}
}

// candidate extracts the candidate event for tx, or returns false when the
// transaction is not a deployment from a monitored sender.
func (e *EthereumMonitor) candidate(item blockTx) (models.CandidateEvent, bool) {
	from := strings.ToLower(item.tx.From)
	if _, ok := e.watched[from]; !ok {
		return models.CandidateEvent{}, false
	}
	if !item.tx.IsContractCreation() {
		return models.CandidateEvent{}, false
	}

	ts := item.timestamp
	return models.CandidateEvent{
		Chain:         models.Ethereum,
		TransactionID: strings.ToLower(item.tx.Hash),
		Timestamp:     &ts,
		Addresses:     []string{from},
		Discriminator: contractCreationDiscriminator,
	}, true
}

// processTransaction classifies one new transaction and emits a report when
// it is a deployment. It returns whether a report was emitted.
func (e *EthereumMonitor) processTransaction(ctx context.Context, item blockTx, stats *models.CycleStats) bool {
	if item.tx.From == "" {
		stats.Errors++
		e.Logger.Warn().
			Err(ErrMalformedTransaction).
			Str("txHash", item.tx.Hash).
			Msg("Skipping transaction without sender")
		return false
	}

	event, ok := e.candidate(item)
	if !ok {
		return false
	}

	report := models.TokenCreationReport{
		Chain:          models.Ethereum,
		Classification: models.ContractCreation,
		TxHash:         event.TransactionID,
		BlockTime:      event.Timestamp,
		FormattedTime:  timefmt.FormatTimestamp(event.Timestamp),
		Accounts:       event.Addresses,
		Creator:        event.Addresses[0],
		ExplorerURL:    e.GetExplorerURL(event.TransactionID),
		DetectedAt:     e.Now(),
	}

	e.enrich(ctx, &report, stats)
	e.Emit(report)
	return true
}

// enrich fills in the deployed address and the ERC20 heuristic. Failures are
// logged and leave the report as a plain contract creation.
func (e *EthereumMonitor) enrich(ctx context.Context, report *models.TokenCreationReport, stats *models.CycleStats) {
	receipt, err := e.client.TransactionReceipt(ctx, report.TxHash)
	if err != nil {
		stats.Errors++
		e.RecordRPCError("eth_getTransactionReceipt", err).
			Str("txHash", report.TxHash).
			Msg("Failed to fetch receipt for contract creation")
		return
	}

	report.GasUsed = receipt.GasUsed
	if receipt.ContractAddress == "" {
		return
	}
	report.ContractAddress = receipt.ContractAddress

	code, err := e.client.CodeAt(ctx, receipt.ContractAddress)
	if err != nil {
		stats.Errors++
		e.RecordRPCError("eth_getCode", err).
			Str("txHash", report.TxHash).
			Str("contract", receipt.ContractAddress).
			Msg("Failed to fetch contract code")
		return
	}

	if ContainsTokenSignature(code, e.signatureHashes) {
		report.Classification = models.ContractCreationConfirmedERC20
		report.ConfirmedERC20 = true
	}
}
