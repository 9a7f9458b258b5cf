package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/events"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/timex"
	"github.com/google/uuid"
)

const (
	maxCompanyLen  = 100
	maxPositionLen = 100
	maxLinkLen     = 500
	maxNotesLen    = 1000
	maxSalaryLen   = 100
	maxLocationLen = 200

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// JobInput is a create request. Dates are YYYY-MM-DD or ISO 8601 strings.
type JobInput struct {
	Company         string  `json:"company"`
	Position        string  `json:"position"`
	Status          string  `json:"status"`
	AppliedDate     string  `json:"applied_date"`
	ApplicationLink *string `json:"application_link"`
	SalaryRange     *string `json:"salary_range"`
	Location        *string `json:"location"`
	JobType         *string `json:"job_type"`
	Notes           *string `json:"notes"`
	InterviewDate   *string `json:"interview_date"`
	FollowUpDate    *string `json:"follow_up_date"`
}

// JobUpdateInput is a partial update: absent keys are left alone and an
// explicit null clears an optional field.
type JobUpdateInput struct {
	Company         models.Field[string] `json:"company"`
	Position        models.Field[string] `json:"position"`
	Status          models.Field[string] `json:"status"`
	AppliedDate     models.Field[string] `json:"applied_date"`
	ApplicationLink models.Field[string] `json:"application_link"`
	SalaryRange     models.Field[string] `json:"salary_range"`
	Location        models.Field[string] `json:"location"`
	JobType         models.Field[string] `json:"job_type"`
	Notes           models.Field[string] `json:"notes"`
	InterviewDate   models.Field[string] `json:"interview_date"`
	FollowUpDate    models.Field[string] `json:"follow_up_date"`
}

type ListParams struct {
	Page    int
	Size    int
	Status  string
	Company string
}

type JobPage struct {
	Jobs  []*models.Job
	Total int
	Page  int
	Size  int
	Pages int
}

type JobStats struct {
	TotalApplications int
	StatusBreakdown   map[models.Status]int
	// SuccessRate is offers over total as a percentage, two decimals.
	SuccessRate float64
}

type JobService struct {
	repomanager repomanager.RepositoryManager
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
}

func NewJobService(m repomanager.RepositoryManager, p events.Publisher, logger logging.Logger) *JobService {
	return &JobService{repomanager: m, publisher: p, logger: logger, now: time.Now}
}

func (s *JobService) Create(ctx context.Context, userID string, in JobInput) (*models.Job, error) {
	job, err := buildJob(userID, in)
	if err != nil {
		return nil, err
	}

	created, err := s.repomanager.Jobs().Create(ctx, job)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.JobCreated, created, "")
	return created, nil
}

func (s *JobService) Get(ctx context.Context, userID, id string) (*models.Job, error) {
	if !validID(id) {
		return nil, errJobNotFound()
	}

	job, err := s.repomanager.Jobs().Get(ctx, id, userID)
	if err != nil {
		return nil, notFoundAsJob(err)
	}
	return job, nil
}

func (s *JobService) List(ctx context.Context, userID string, p ListParams) (*JobPage, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Page < 1 {
		return nil, common.Errorf(common.ErrorValidation, "page must be at least 1")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return nil, common.Errorf(common.ErrorValidation, "size must be between 1 and %d", MaxPageSize)
	}

	filter := models.JobFilter{Company: strings.TrimSpace(p.Company)}
	if p.Status != "" {
		status := models.Status(p.Status)
		if !status.Valid() {
			return nil, invalidStatus(p.Status)
		}
		filter.Status = status
	}

	repo := s.repomanager.Jobs()

	total, err := repo.Count(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	jobs, err := repo.List(ctx, userID, filter, (p.Page-1)*p.Size, p.Size)
	if err != nil {
		return nil, err
	}

	pages := 1
	if total > 0 {
		pages = (total + p.Size - 1) / p.Size
	}

	return &JobPage{Jobs: jobs, Total: total, Page: p.Page, Size: p.Size, Pages: pages}, nil
}

func (s *JobService) Update(ctx context.Context, userID, id string, in JobUpdateInput) (*models.Job, error) {
	if !validID(id) {
		return nil, errJobNotFound()
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.Get(ctx, userID, id)
	}

	var before, after *models.Job
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx repomanager.Tx) error {
		repo := tx.Jobs()

		var err error
		if before, err = repo.Get(ctx, id, userID); err != nil {
			return err
		}
		after, err = repo.Update(ctx, id, userID, patch)
		return err
	})
	if err != nil {
		return nil, notFoundAsJob(err)
	}

	if before.Status != after.Status {
		s.publish(ctx, events.JobStatusChanged, after, before.Status)
	} else {
		s.publish(ctx, events.JobUpdated, after, "")
	}
	return after, nil
}

func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return errJobNotFound()
	}

	ok, err := s.repomanager.Jobs().Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errJobNotFound()
	}

	s.publish(ctx, events.JobDeleted, &models.Job{ID: id, UserID: userID}, "")
	return nil
}

func (s *JobService) Stats(ctx context.Context, userID string) (*JobStats, error) {
	breakdown, err := s.repomanager.Jobs().CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range breakdown {
		total += n
	}

	stats := &JobStats{TotalApplications: total, StatusBreakdown: breakdown}
	if total > 0 {
		rate := float64(breakdown[models.StatusOffer]) / float64(total) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

// publish never fails the caller: a lost notification is logged and dropped.
func (s *JobService) publish(ctx context.Context, kind string, job *models.Job, previous models.Status) {
	e := events.Event{
		Type:           kind,
		JobID:          job.ID,
		UserID:         job.UserID,
		Company:        job.Company,
		Position:       job.Position,
		Status:         string(job.Status),
		PreviousStatus: string(previous),
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "job event not published", "type", kind, "job_id", job.ID, "error", err)
	}
}

func buildJob(userID string, in JobInput) (*models.Job, error) {
	job := &models.Job{UserID: userID, Status: models.StatusApplied}

	var err error
	if job.Company, err = requiredText("company", in.Company, maxCompanyLen); err != nil {
		return nil, err
	}
	if job.Position, err = requiredText("position", in.Position, maxPositionLen); err != nil {
		return nil, err
	}

	if in.Status != "" {
		status := models.Status(in.Status)
		if !status.Valid() {
			return nil, invalidStatus(in.Status)
		}
		job.Status = status
	}

	if strings.TrimSpace(in.AppliedDate) == "" {
		return nil, common.Errorf(common.ErrorValidation, "applied_date is required")
	}
	if job.AppliedDate, err = timex.ParseCalendarDate(in.AppliedDate); err != nil {
		return nil, common.Errorf(common.ErrorValidation, "applied_date: %v", err)
	}

	if job.ApplicationLink, err = optionalText("application_link", in.ApplicationLink, maxLinkLen); err != nil {
		return nil, err
	}
	if job.SalaryRange, err = optionalText("salary_range", in.SalaryRange, maxSalaryLen); err != nil {
		return nil, err
	}
	if job.Location, err = optionalText("location", in.Location, maxLocationLen); err != nil {
		return nil, err
	}
	if job.Notes, err = optionalText("notes", in.Notes, maxNotesLen); err != nil {
		return nil, err
	}

	if in.JobType != nil && *in.JobType != "" {
		jt, err := parseJobType(*in.JobType)
		if err != nil {
			return nil, err
		}
		job.JobType = &jt
	}

	if job.InterviewDate, err = optionalTime("interview_date", in.InterviewDate); err != nil {
		return nil, err
	}
	if job.FollowUpDate, err = optionalTime("follow_up_date", in.FollowUpDate); err != nil {
		return nil, err
	}

	return job, nil
}

func buildPatch(in JobUpdateInput) (models.JobPatch, error) {
	var p models.JobPatch

	for _, f := range []struct {
		name  string
		field models.Field[string]
	}{
		{"company", in.Company},
		{"position", in.Position},
		{"status", in.Status},
		{"applied_date", in.AppliedDate},
	} {
		if f.field.Present && f.field.Null {
			return p, common.Errorf(common.ErrorValidation, "%s cannot be null", f.name)
		}
	}

	if in.Company.Present {
		v, err := requiredText("company", in.Company.Value, maxCompanyLen)
		if err != nil {
			return p, err
		}
		p.Company = &v
	}
	if in.Position.Present {
		v, err := requiredText("position", in.Position.Value, maxPositionLen)
		if err != nil {
			return p, err
		}
		p.Position = &v
	}
	if in.Status.Present {
		status := models.Status(in.Status.Value)
		if !status.Valid() {
			return p, invalidStatus(in.Status.Value)
		}
		p.Status = &status
	}
	if in.AppliedDate.Present {
		d, err := timex.ParseCalendarDate(in.AppliedDate.Value)
		if err != nil {
			return p, common.Errorf(common.ErrorValidation, "applied_date: %v", err)
		}
		p.AppliedDate = &d
	}

	var err error
	if p.ApplicationLink, err = patchText("application_link", in.ApplicationLink, maxLinkLen); err != nil {
		return p, err
	}
	if p.SalaryRange, err = patchText("salary_range", in.SalaryRange, maxSalaryLen); err != nil {
		return p, err
	}
	if p.Location, err = patchText("location", in.Location, maxLocationLen); err != nil {
		return p, err
	}
	if p.Notes, err = patchText("notes", in.Notes, maxNotesLen); err != nil {
		return p, err
	}

	if in.JobType.Present {
		f := models.Clear[models.JobType]()
		if !in.JobType.Null && in.JobType.Value != "" {
			jt, err := parseJobType(in.JobType.Value)
			if err != nil {
				return p, err
			}
			f = models.Set(jt)
		}
		p.JobType = &f
	}

	if p.InterviewDate, err = patchTime("interview_date", in.InterviewDate); err != nil {
		return p, err
	}
	if p.FollowUpDate, err = patchTime("follow_up_date", in.FollowUpDate); err != nil {
		return p, err
	}

	return p, nil
}

func requiredText(name, v string, limit int) (string, error) {
	v = strings.TrimSpace(v)
	if n := utf8.RuneCountInString(v); n < 1 || n > limit {
		return "", common.Errorf(common.ErrorValidation, "%s must be 1-%d characters", name, limit)
	}
	return v, nil
}

func optionalText(name string, v *string, limit int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	if utf8.RuneCountInString(*v) > limit {
		return nil, common.Errorf(common.ErrorValidation, "%s must be at most %d characters", name, limit)
	}
	s := *v
	return &s, nil
}

func optionalTime(name string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := timex.ParseDate(*v)
	if err != nil {
		return nil, common.Errorf(common.ErrorValidation, "%s: %v", name, err)
	}
	return &t, nil
}

func patchText(name string, f models.Field[string], limit int) (*models.Field[string], error) {
	if !f.Present {
		return nil, nil
	}
	if f.Null {
		c := models.Clear[string]()
		return &c, nil
	}
	if utf8.RuneCountInString(f.Value) > limit {
		return nil, common.Errorf(common.ErrorValidation, "%s must be at most %d characters", name, limit)
	}
	v := models.Set(f.Value)
	return &v, nil
}

func patchTime(name string, f models.Field[string]) (*models.Field[time.Time], error) {
	if !f.Present {
		return nil, nil
	}
	if f.Null || strings.TrimSpace(f.Value) == "" {
		c := models.Clear[time.Time]()
		return &c, nil
	}
	t, err := timex.ParseDate(f.Value)
	if err != nil {
		return nil, common.Errorf(common.ErrorValidation, "%s: %v", name, err)
	}
	v := models.Set(t)
	return &v, nil
}

func parseJobType(v string) (models.JobType, error) {
	jt := models.JobType(v)
	if !jt.Valid() {
		return "", common.Errorf(common.ErrorValidation, "invalid job_type %q", v)
	}
	return jt, nil
}

func invalidStatus(v string) error {
	return common.Errorf(common.ErrorValidation, "invalid status %q", v)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func errJobNotFound() error {
	return common.Errorf(common.ErrorNotFound, "Job not found")
}

func notFoundAsJob(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return errJobNotFound()
	}
	return err
}
