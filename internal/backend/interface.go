package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult bundles the ledger repository with the optional broker client.
// Events is nil when no broker is configured or reachable.
type BackendResult struct {
	Repository ledger.Repository
	Events     *amqp.Client
	Cleanup    CleanupFunc
}

// Publisher returns Events as a services.EventPublisher, or a nil interface
// when there is no client.
func (r *BackendResult) Publisher() services.EventPublisher {
	if r.Events == nil {
		return nil
	}
	return r.Events
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory specific: start without the default taxonomy.
	MemoryEmpty bool
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
