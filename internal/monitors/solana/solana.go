package solana

import (
	"context"
	"errors"
	"iter"

	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"
	"token-monitor/internal/monitors"
	"token-monitor/internal/timefmt"
)

var _ interfaces.ChainMonitor = (*SolanaMonitor)(nil)

// Config is the static configuration of a SolanaMonitor
type Config struct {
	TxLimit           int
	TokenProgramID    string
	MetadataProgramID string
}

type SolanaMonitor struct {
	*monitors.BaseMonitor
	client            Client
	txLimit           int
	tokenProgramID    string
	metadataProgramID string
	watched           map[string]struct{}
}

func NewSolanaMonitor(baseMonitor *monitors.BaseMonitor, client Client, cfg Config) *SolanaMonitor {
	watched := make(map[string]struct{}, len(baseMonitor.Addresses))
	for _, addr := range baseMonitor.Addresses {
		watched[addr] = struct{}{}
	}
	return &SolanaMonitor{
		BaseMonitor:       baseMonitor,
		client:            client,
		txLimit:           cfg.TxLimit,
		tokenProgramID:    cfg.TokenProgramID,
		metadataProgramID: cfg.MetadataProgramID,
		watched:           watched,
	}
}

// activity is one signature returned for a monitored address
type activity struct {
	address string
	sig     SignatureInfo
}

// PollOnce fetches the most recent signatures of every monitored address and
// reports token program activity in transactions not seen before.
func (s *SolanaMonitor) PollOnce(ctx context.Context) (models.CycleStats, error) {
	var stats models.CycleStats

	for act := range s.unseen(s.recentActivity(ctx, &stats), &stats) {
		s.Logger.Debug().
			Str("address", act.address).
			Str("signature", act.sig.Signature).
			Msg("Fetching transaction")

		tx, err := s.client.GetTransaction(ctx, act.sig.Signature)
		if err != nil {
			stats.Errors++
			if errors.Is(err, ErrTransactionNotFound) {
				s.Logger.Warn().Str("signature", act.sig.Signature).Msg("No data found for transaction")
				continue
			}
			s.RecordRPCError("getTransaction", err).
				Str("signature", act.sig.Signature).
				Msg("Error getting transaction")
			continue
		}
		if tx == nil {
			stats.Errors++
			s.Logger.Warn().Str("signature", act.sig.Signature).Msg("No data found for transaction")
			continue
		}

		blockTime := act.sig.BlockTime
		if blockTime == nil {
			blockTime = tx.BlockTime
		}

		for _, report := range s.Classify(act.sig.Signature, blockTime, tx) {
			s.Emit(report)
			stats.Reports++
		}
	}

	return stats, ctx.Err()
}

// recentActivity yields signatures address by address in configured order.
// A failure for one address is logged and the remaining addresses are still
// queried.
func (s *SolanaMonitor) recentActivity(ctx context.Context, stats *models.CycleStats) iter.Seq[activity] {
	return func(yield func(activity) bool) {
		for _, address := range s.Addresses {
			if ctx.Err() != nil {
				return
			}
			stats.Units++

			sigs, err := s.client.GetSignatures(ctx, address, s.txLimit)
			if err != nil {
				stats.Errors++
				s.RecordRPCError("getSignaturesForAddress", err).
					Str("address", address).
					Msg("Error monitoring Solana address")
				continue
			}

			for _, sig := range sigs {
				stats.Seen++
				if !yield(activity{address: address, sig: sig}) {
					return
				}
			}
		}
	}
}

// unseen filters out known signatures and records the rest as known before
// they are processed.
func (s *SolanaMonitor) unseen(seq iter.Seq[activity], stats *models.CycleStats) iter.Seq[activity] {
	return func(yield func(activity) bool) {
		for act := range seq {
			if act.sig.Signature == "" || !s.MarkNew(act.sig.Signature) {
				continue
			}
			stats.New++
			if !yield(act) {
				return
			}
		}
	}
}

// Classify evaluates every instruction of tx against the token and metadata
// programs. Nothing is reported unless a monitored address appears somewhere
// in the account list.
func (s *SolanaMonitor) Classify(signature string, blockTime *int64, tx *Transaction) []models.TokenCreationReport {
	creators := s.monitoredAccounts(tx.AccountKeys)
	if len(creators) == 0 {
		return nil
	}

	var reports []models.TokenCreationReport
	for i, inst := range tx.Instructions {
		event := models.CandidateEvent{
			Chain:         models.Solana,
			TransactionID: signature,
			Timestamp:     blockTime,
			Addresses:     tx.AccountKeys,
			Discriminator: inst.ProgramID,
		}

		classification := s.classifyInstruction(event)
		if classification == models.ClassificationNone {
			continue
		}

		report := models.TokenCreationReport{
			Chain:            models.Solana,
			Classification:   classification,
			TxHash:           signature,
			InstructionIndex: i,
			BlockTime:        blockTime,
			FormattedTime:    timefmt.FormatTimestamp(blockTime),
			Accounts:         append([]string(nil), tx.AccountKeys...),
			ExplorerURL:      s.GetExplorerURL(signature),
			DetectedAt:       s.Now(),
		}
		if classification == models.SPLTokenCreation {
			report.CreatorAccounts = append([]string(nil), creators...)
		}
		reports = append(reports, report)
	}
	return reports
}

func (s *SolanaMonitor) classifyInstruction(event models.CandidateEvent) models.Classification {
	switch event.Discriminator {
	case s.tokenProgramID:
		return models.SPLTokenCreation
	case s.metadataProgramID:
		return models.TokenMetadataEvent
	default:
		return models.ClassificationNone
	}
}

// monitoredAccounts returns the monitored addresses present in accounts, in
// account-list order and without duplicates.
func (s *SolanaMonitor) monitoredAccounts(accounts []string) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, account := range accounts {
		if _, ok := s.watched[account]; !ok {
			continue
		}
		if _, dup := seen[account]; dup {
			continue
		}
		seen[account] = struct{}{}
		found = append(found, account)
	}
	return found
}
