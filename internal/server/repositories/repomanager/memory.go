package repomanager

import (
	"context"

	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/memory"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/users"
)

type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *MemoryRepositoryManager) Users() users.Repository                 { return m.store.Users() }
func (m *MemoryRepositoryManager) Jobs() jobs.Repository                   { return m.store.Jobs() }
func (m *MemoryRepositoryManager) Close() error                            { return nil }

type memoryTx struct {
	users *memory.UserRepository
	jobs  *memory.JobRepository
}

func (t memoryTx) Users() users.Repository { return t.users }
func (t memoryTx) Jobs() jobs.Repository   { return t.jobs }

// WithTx undoes only the writes made through tx when fn fails.
func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return m.store.Atomic(func(u *memory.UserRepository, j *memory.JobRepository) error {
		return fn(ctx, memoryTx{users: u, jobs: j})
	})
}
