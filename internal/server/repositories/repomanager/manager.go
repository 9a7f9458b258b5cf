// Package repomanager selects the storage adapter for the server and hands
// out repositories, either directly or bound to one transaction.
package repomanager

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/users"
)

// MemoryDSN selects the in-process adapter instead of PostgreSQL.
const MemoryDSN = "memory://"

// Tx exposes repositories that share one unit of work.
type Tx interface {
	Users() users.Repository
	Jobs() jobs.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Jobs() jobs.Repository
	// WithTx runs fn in a transaction that is committed when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// New picks the adapter from dsn: MemoryDSN gives the in-memory store, any
// other value is treated as a PostgreSQL DSN.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if strings.HasPrefix(dsn, MemoryDSN) {
		return NewMemoryRepositoryManager(), nil
	}
	return OpenPostgres(ctx, dsn)
}
