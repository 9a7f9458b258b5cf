// Package jobs stores job applications. Every lookup is scoped by owner:
// a job that belongs to another user is indistinguishable from a missing one.
package jobs

import (
	"context"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	Get(ctx context.Context, id, userID string) (*models.Job, error)
	// List returns jobs ordered by applied_date desc, then created_at desc.
	List(ctx context.Context, userID string, filter models.JobFilter, skip, limit int) ([]*models.Job, error)
	Count(ctx context.Context, userID string, filter models.JobFilter) (int, error)
	Update(ctx context.Context, id, userID string, patch models.JobPatch) (*models.Job, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id, userID string) (bool, error)
	CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error)
}
