package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/dbx"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
)

const jobColumns = `id, user_id, company, position, status, applied_date, application_link, salary_range,
		 location, job_type, notes, interview_date, follow_up_date, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	query :=
		`INSERT INTO jobs (user_id, company, position, status, applied_date, application_link,
		 salary_range, location, job_type, notes, interview_date, follow_up_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at
		 `

	var jobType any
	if job.JobType != nil {
		jobType = string(*job.JobType)
	}

	err := r.db.QueryRowContext(ctx, query,
		job.UserID, job.Company, job.Position, string(job.Status), job.AppliedDate,
		nullString(job.ApplicationLink), nullString(job.SalaryRange), nullString(job.Location),
		jobType, nullString(job.Notes), nullTime(job.InterviewDate), nullTime(job.FollowUpDate),
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, userID string) (*models.Job, error) {
	query :=
		`SELECT ` + jobColumns + ` FROM jobs
		 WHERE id = $1 AND user_id = $2
		 `

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, filter models.JobFilter, skip, limit int) ([]*models.Job, error) {
	where, args := filterClause(userID, filter)
	args = append(args, skip, limit)

	query := fmt.Sprintf(
		`SELECT %s FROM jobs
		 WHERE %s
		 ORDER BY applied_date DESC, created_at DESC
		 OFFSET $%d LIMIT $%d
		 `, jobColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string, filter models.JobFilter) (int, error) {
	where, args := filterClause(userID, filter)
	query := `SELECT COUNT(*) FROM jobs WHERE ` + where

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id, userID string, patch models.JobPatch) (*models.Job, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Company != nil {
		set("company", *patch.Company)
	}
	if patch.Position != nil {
		set("position", *patch.Position)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.AppliedDate != nil {
		set("applied_date", *patch.AppliedDate)
	}
	if patch.ApplicationLink != nil {
		set("application_link", fieldValue(*patch.ApplicationLink))
	}
	if patch.SalaryRange != nil {
		set("salary_range", fieldValue(*patch.SalaryRange))
	}
	if patch.Location != nil {
		set("location", fieldValue(*patch.Location))
	}
	if patch.JobType != nil {
		var v any
		if !patch.JobType.Null {
			v = string(patch.JobType.Value)
		}
		set("job_type", v)
	}
	if patch.Notes != nil {
		set("notes", fieldValue(*patch.Notes))
	}
	if patch.InterviewDate != nil {
		set("interview_date", fieldValue(*patch.InterviewDate))
	}
	if patch.FollowUpDate != nil {
		set("follow_up_date", fieldValue(*patch.FollowUpDate))
	}

	// updated_at must move forward even when two updates land in the same
	// clock tick.
	sets = append(sets, "updated_at = GREATEST(now(), updated_at + interval '1 microsecond')")
	args = append(args, id, userID)

	query := fmt.Sprintf(
		`UPDATE jobs SET %s
		 WHERE id = $%d AND user_id = $%d
		 RETURNING %s
		 `, strings.Join(sets, ", "), len(args)-1, len(args), jobColumns)

	job, err := scanJob(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	query :=
		`SELECT status, COUNT(*) FROM jobs
		 WHERE user_id = $1
		 GROUP BY status
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[models.Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filterClause builds the WHERE body shared by List and Count.
func filterClause(userID string, f models.JobFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Company != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Company)+"%")
		clauses = append(clauses, fmt.Sprintf("company ILIKE $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job                                    models.Job
		status                                 string
		link, salary, location, jobType, notes sql.NullString
		interviewDate, followUpDate            sql.NullTime
	)

	err := row.Scan(&job.ID, &job.UserID, &job.Company, &job.Position, &status, &job.AppliedDate,
		&link, &salary, &location, &jobType, &notes, &interviewDate, &followUpDate,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Status = models.Status(status)
	job.AppliedDate = time.Date(job.AppliedDate.Year(), job.AppliedDate.Month(), job.AppliedDate.Day(), 0, 0, 0, 0, time.UTC)
	job.ApplicationLink = stringPtr(link)
	job.SalaryRange = stringPtr(salary)
	job.Location = stringPtr(location)
	job.Notes = stringPtr(notes)
	if jobType.Valid {
		t := models.JobType(jobType.String)
		job.JobType = &t
	}
	job.InterviewDate = timePtr(interviewDate)
	job.FollowUpDate = timePtr(followUpDate)

	return &job, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func fieldValue[T any](f models.Field[T]) any {
	if f.Null {
		return nil
	}
	return f.Value
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
