package events

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"

	"github.com/rs/zerolog"
)

// PrintEmitter writes a human-readable block for every report and forwards
// it to the wrapped emitters
type PrintEmitter struct {
	Out             io.Writer
	Logger          *zerolog.Logger
	WrappedEmitters []interfaces.EventEmitter

	mu sync.Mutex
}

var _ interfaces.EventEmitter = (*PrintEmitter)(nil)

func NewPrintEmitter(out io.Writer, logger *zerolog.Logger, wrapped ...interfaces.EventEmitter) *PrintEmitter {
	return &PrintEmitter{Out: out, Logger: logger, WrappedEmitters: wrapped}
}

// EmitEvent prints the report and forwards it. Every wrapped emitter is
// attempted even when printing fails; all errors are joined.
func (d *PrintEmitter) EmitEvent(report models.TokenCreationReport) error {
	var errs []error

	d.mu.Lock()
	_, err := io.WriteString(d.Out, Render(report))
	d.mu.Unlock()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to write report: %w", err))
	}

	if d.Logger != nil {
		d.Logger.Info().
			Str("chain", report.Chain.String()).
			Str("classification", report.Classification.String()).
			Str("txHash", report.TxHash).
			Str("contract", report.ContractAddress).
			Bool("confirmedERC20", report.ConfirmedERC20).
			Msg("Token creation report")
	}

	for _, emitter := range d.WrappedEmitters {
		if emitter == nil {
			continue
		}
		if err := emitter.EmitEvent(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Render formats a report for the console stream
func Render(report models.TokenCreationReport) string {
	var b strings.Builder

	tag := strings.ToUpper(report.Chain.String())
	switch report.Classification {
	case models.SPLTokenCreation:
		fmt.Fprintf(&b, "\n[%s] POTENTIAL NEW TOKEN CREATION DETECTED\n", tag)
	case models.TokenMetadataEvent:
		fmt.Fprintf(&b, "\n[%s] TOKEN METADATA CREATION DETECTED\n", tag)
	case models.ContractCreation, models.ContractCreationConfirmedERC20:
		fmt.Fprintf(&b, "\n[%s] POTENTIAL CONTRACT CREATION DETECTED\n", tag)
	default:
		fmt.Fprintf(&b, "\n[%s] %s\n", tag, report.Classification)
	}

	fmt.Fprintf(&b, "Time: %s\n", report.FormattedTime)
	fmt.Fprintf(&b, "Transaction: %s\n", report.TxHash)

	if report.Chain == models.Ethereum {
		fmt.Fprintf(&b, "Creator: %s\n", report.Creator)
		if report.GasUsed > 0 {
			fmt.Fprintf(&b, "Gas Used: %d\n", report.GasUsed)
		} else {
			b.WriteString("Gas Used: Unknown\n")
		}
		if report.ContractAddress != "" {
			fmt.Fprintf(&b, "NEW CONTRACT ADDRESS: %s\n", report.ContractAddress)
		}
		if report.ConfirmedERC20 {
			b.WriteString("Confirmed ERC20 Token Contract\n")
		}
	} else {
		creators := make(map[string]struct{}, len(report.CreatorAccounts))
		for _, c := range report.CreatorAccounts {
			creators[c] = struct{}{}
		}
		b.WriteString("\nInvolved Accounts:\n")
		for idx, account := range report.Accounts {
			fmt.Fprintf(&b, "Account %d: %s\n", idx, account)
			if _, ok := creators[account]; ok {
				fmt.Fprintf(&b, "CREATOR ACCOUNT INVOLVED: %s\n", account)
			}
		}
	}

	if report.ExplorerURL != "" {
		fmt.Fprintf(&b, "Explorer: %s\n", report.ExplorerURL)
	}
	return b.String()
}
