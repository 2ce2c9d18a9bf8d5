package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"

	"github.com/lib/pq"
)

const insertReportSQL = `
	INSERT INTO token_creation_reports (
		chain, classification, tx_hash, instruction_index, block_time,
		accounts, creator_accounts, creator, contract_address,
		confirmed_erc20, gas_used, explorer_url, detected_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (chain, tx_hash, classification, instruction_index) DO NOTHING
`

const saveTimeout = 5 * time.Second

var _ interfaces.EventEmitter = (*ReportStore)(nil)

// reportArgs maps a report onto the insert columns. Optional fields are
// stored as NULL when absent.
func reportArgs(report models.TokenCreationReport) []any {
	var blockTime sql.NullInt64
	if report.BlockTime != nil {
		blockTime = sql.NullInt64{Int64: *report.BlockTime, Valid: true}
	}
	var gasUsed sql.NullInt64
	if report.GasUsed > 0 {
		gasUsed = sql.NullInt64{Int64: int64(report.GasUsed), Valid: true}
	}

	detectedAt := report.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now().UTC()
	}

	return []any{
		report.Chain.String(),
		report.Classification.String(),
		report.TxHash,
		report.InstructionIndex,
		blockTime,
		pq.Array(nonNil(report.Accounts)),
		pq.Array(nonNil(report.CreatorAccounts)),
		nullString(report.Creator),
		nullString(report.ContractAddress),
		report.ConfirmedERC20,
		gasUsed,
		nullString(report.ExplorerURL),
		detectedAt,
	}
}

// SaveReport inserts a report. Re-inserting the same report is a no-op.
func (s *ReportStore) SaveReport(ctx context.Context, report models.TokenCreationReport) error {
	if _, err := s.db.ExecContext(ctx, insertReportSQL, reportArgs(report)...); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.TxHash, err)
	}
	s.logger.Debug().
		Str("chain", report.Chain.String()).
		Str("txHash", report.TxHash).
		Msg("Saved report")
	return nil
}

func (s *ReportStore) EmitEvent(report models.TokenCreationReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return s.SaveReport(ctx, report)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
