// Package backend wires the configured ledger, the AMQP publisher and the
// Google Sheets workbook into one bundle for the commands.
package backend

import (
	"context"

	"razhodi/internal/amqp"
	"razhodi/internal/ledger"
	"razhodi/internal/services"
	"razhodi/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result is what a Factory builds. Publisher, AMQP and Workbook are nil when
// the matching integration is not configured.
type Result struct {
	Store     ledger.Store
	Publisher services.GridPublisher
	AMQP      *amqp.Client
	Workbook  sheets.Workbook
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend seed files
	DataDirectory string

	SQLiteDBPath string

	// AMQP is skipped when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP makes an unreachable broker an error instead of a warning.
	RequireAMQP bool

	// Google Sheets is skipped when GoogleSpreadsheetID is empty.
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
