// Package memory is an in-process implementation of the user and job
// repositories, used for local runs and tests. Data lives only as long as
// the process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/google/uuid"
)

// Store holds all users and jobs behind a single RWMutex.
type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	users map[string]models.User
	jobs  map[string]models.Job
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]models.User),
		jobs:  make(map[string]models.Job),
		now:   time.Now,
	}
}

// journal keeps the value each key had before a transaction first wrote
// it. A nil entry means the key did not exist.
type journal struct {
	users map[string]*models.User
	jobs  map[string]*models.Job
}

func newJournal() *journal {
	return &journal{
		users: make(map[string]*models.User),
		jobs:  make(map[string]*models.Job),
	}
}

// The record methods must be called with s.mu held for writing.
func (j *journal) recordUser(s *Store, id string) {
	if j == nil {
		return
	}
	if _, seen := j.users[id]; seen {
		return
	}
	var prev *models.User
	if u, ok := s.users[id]; ok {
		prev = &u
	}
	j.users[id] = prev
}

func (j *journal) recordJob(s *Store, id string) {
	if j == nil {
		return
	}
	if _, seen := j.jobs[id]; seen {
		return
	}
	var prev *models.Job
	if job, ok := s.jobs[id]; ok {
		c := cloneJob(job)
		prev = &c
	}
	j.jobs[id] = prev
}

// undo puts back only the keys the transaction wrote, so concurrent writes
// made outside it survive.
func (j *journal) undo(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, prev := range j.users {
		if prev == nil {
			delete(s.users, id)
		} else {
			s.users[id] = *prev
		}
	}
	for id, prev := range j.jobs {
		if prev == nil {
			delete(s.jobs, id)
		} else {
			s.jobs[id] = *prev
		}
	}
}

// Atomic runs fn with repositories whose writes are undone if fn fails or
// panics. Atomic calls are serialised against each other; plain repository
// calls from outside fn are not blocked and are never rolled back.
func (s *Store) Atomic(fn func(users *UserRepository, jobs *JobRepository) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := newJournal()
	defer func() {
		if p := recover(); p != nil {
			j.undo(s)
			panic(p)
		}
		if err != nil {
			j.undo(s)
		}
	}()

	return fn(&UserRepository{s: s, j: j}, &JobRepository{s: s, j: j})
}

// Users returns the credential store view of s.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Jobs returns the job repository view of s.
func (s *Store) Jobs() *JobRepository {
	return &JobRepository{s: s}
}

type UserRepository struct {
	s *Store
	j *journal
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, common.ErrorAlreadyExists
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now().UTC()
	r.j.recordUser(r.s, user.ID)
	r.s.users[user.ID] = *user

	out := *user
	return &out, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

type JobRepository struct {
	s *Store
	j *journal
}

func (r *JobRepository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now
	r.j.recordJob(r.s, job.ID)
	r.s.jobs[job.ID] = cloneJob(*job)

	out := cloneJob(*job)
	return &out, nil
}

func (r *JobRepository) Get(ctx context.Context, id, userID string) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	job, ok := r.s.jobs[id]
	if !ok || job.UserID != userID {
		return nil, common.ErrorNotFound
	}
	out := cloneJob(job)
	return &out, nil
}

func (r *JobRepository) List(ctx context.Context, userID string, filter models.JobFilter, skip, limit int) ([]*models.Job, error) {
	r.s.mu.RLock()
	matched := r.matching(userID, filter)
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.AppliedDate.Equal(b.AppliedDate) {
			return a.AppliedDate.After(b.AppliedDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	skip = max(skip, 0)
	result := make([]*models.Job, 0)
	for i := skip; i < len(matched) && (limit <= 0 || len(result) < limit); i++ {
		job := matched[i]
		result = append(result, &job)
	}
	return result, nil
}

func (r *JobRepository) Count(ctx context.Context, userID string, filter models.JobFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.matching(userID, filter)), nil
}

// matching must be called with the read lock held.
func (r *JobRepository) matching(userID string, filter models.JobFilter) []models.Job {
	company := strings.ToLower(filter.Company)

	var out []models.Job
	for _, job := range r.s.jobs {
		if job.UserID != userID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if company != "" && !strings.Contains(strings.ToLower(job.Company), company) {
			continue
		}
		out = append(out, cloneJob(job))
	}
	return out
}

func (r *JobRepository) Update(ctx context.Context, id, userID string, patch models.JobPatch) (*models.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	job, ok := r.s.jobs[id]
	if !ok || job.UserID != userID {
		return nil, common.ErrorNotFound
	}

	if patch.Company != nil {
		job.Company = *patch.Company
	}
	if patch.Position != nil {
		job.Position = *patch.Position
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.AppliedDate != nil {
		job.AppliedDate = *patch.AppliedDate
	}
	applyField(&job.ApplicationLink, patch.ApplicationLink)
	applyField(&job.SalaryRange, patch.SalaryRange)
	applyField(&job.Location, patch.Location)
	applyField(&job.JobType, patch.JobType)
	applyField(&job.Notes, patch.Notes)
	applyField(&job.InterviewDate, patch.InterviewDate)
	applyField(&job.FollowUpDate, patch.FollowUpDate)

	now := r.s.now().UTC()
	if !now.After(job.UpdatedAt) {
		now = job.UpdatedAt.Add(time.Microsecond)
	}
	job.UpdatedAt = now

	r.j.recordJob(r.s, id)
	r.s.jobs[id] = cloneJob(job)
	out := cloneJob(job)
	return &out, nil
}

func (r *JobRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	job, ok := r.s.jobs[id]
	if !ok || job.UserID != userID {
		return false, nil
	}
	r.j.recordJob(r.s, id)
	delete(r.s.jobs, id)
	return true, nil
}

func (r *JobRepository) CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[models.Status]int)
	for _, job := range r.s.jobs {
		if job.UserID == userID {
			out[job.Status]++
		}
	}
	return out, nil
}

func applyField[T any](dst **T, f *models.Field[T]) {
	if f == nil {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := f.Value
	*dst = &v
}

// cloneJob copies the pointer fields so callers never share memory with the
// stored record.
func cloneJob(j models.Job) models.Job {
	j.ApplicationLink = clonePtr(j.ApplicationLink)
	j.SalaryRange = clonePtr(j.SalaryRange)
	j.Location = clonePtr(j.Location)
	j.JobType = clonePtr(j.JobType)
	j.Notes = clonePtr(j.Notes)
	j.InterviewDate = clonePtr(j.InterviewDate)
	j.FollowUpDate = clonePtr(j.FollowUpDate)
	return j
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
