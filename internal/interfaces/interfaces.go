package interfaces

import "token-monitor/internal/models"

// EventEmitter defines the interface for emitting token creation reports
type EventEmitter interface {
	EmitEvent(report models.TokenCreationReport) error
}
