package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/events"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func newJobService(t *testing.T) (*JobService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewJobService(repomanager.NewMemoryRepositoryManager(), pub, logging.Discard()), pub
}

func ptr[T any](v T) *T { return &v }

func createJob(t *testing.T, s *JobService, userID, company, status, applied string) *models.Job {
	t.Helper()
	j, err := s.Create(context.Background(), userID, JobInput{
		Company: company, Position: "Backend Engineer", Status: status, AppliedDate: applied,
	})
	require.NoError(t, err)
	return j
}

func decodeUpdate(t *testing.T, body string) JobUpdateInput {
	t.Helper()
	var in JobUpdateInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestCreate_DefaultsAndRoundTrip(t *testing.T) {
	s, pub := newJobService(t)

	j, err := s.Create(context.Background(), "u1", JobInput{
		Company:         " Acme ",
		Position:        "SRE",
		AppliedDate:     "2025-07-18",
		ApplicationLink: ptr("https://acme.example/jobs/1"),
		JobType:         ptr("Contract"),
		InterviewDate:   ptr("2025-07-25T14:00:00Z"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusApplied, j.Status)
	assert.Equal(t, "Acme", j.Company)
	assert.Equal(t, "2025-07-18", timex.FormatDate(j.AppliedDate))
	require.NotNil(t, j.JobType)
	assert.Equal(t, models.JobTypeContract, *j.JobType)
	require.NotNil(t, j.InterviewDate)

	got, err := s.Get(context.Background(), "u1", j.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-18", timex.FormatDate(got.AppliedDate))

	assert.Equal(t, []string{events.JobCreated}, pub.types())
}

func TestCreate_Validation(t *testing.T) {
	s, _ := newJobService(t)

	long := func(n int) string { return string(make([]rune, n)) }
	valid := func() JobInput { return JobInput{Company: "Acme", Position: "SRE", AppliedDate: "2025-01-01"} }

	tests := []struct {
		name   string
		mutate func(*JobInput)
	}{
		{"empty company", func(in *JobInput) { in.Company = "  " }},
		{"long position", func(in *JobInput) { in.Position = "p" + long(100) }},
		{"missing applied date", func(in *JobInput) { in.AppliedDate = "" }},
		{"bad applied date", func(in *JobInput) { in.AppliedDate = "07/18/2025" }},
		{"unknown status", func(in *JobInput) { in.Status = "Ghosted" }},
		{"unknown job type", func(in *JobInput) { in.JobType = ptr("Gig") }},
		{"long link", func(in *JobInput) { in.ApplicationLink = ptr("h" + long(500)) }},
		{"long notes", func(in *JobInput) { in.Notes = ptr("n" + long(1000)) }},
		{"bad interview date", func(in *JobInput) { in.InterviewDate = ptr("tomorrow") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := s.Create(context.Background(), "u1", in)
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestCreate_AcceptsISODates(t *testing.T) {
	tests := []struct {
		name      string
		applied   string
		interview string
		wantDay   string
		wantAt    time.Time
	}{
		{"no offset", "2025-07-18T10:00:00", "2025-07-25T14:00:00", "2025-07-18", time.Date(2025, 7, 25, 14, 0, 0, 0, time.UTC)},
		{"no seconds", "2025-07-18T23:30", "2025-07-25T14:00", "2025-07-18", time.Date(2025, 7, 25, 14, 0, 0, 0, time.UTC)},
		{"zulu", "2025-07-18T10:00:00Z", "2025-07-25T14:00:00Z", "2025-07-18", time.Date(2025, 7, 25, 14, 0, 0, 0, time.UTC)},
		{"offset", "2025-07-18T23:30:00-05:00", "2025-07-25T16:00:00+02:00", "2025-07-18", time.Date(2025, 7, 25, 14, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newJobService(t)
			j, err := s.Create(context.Background(), "u1", JobInput{
				Company: "Acme", Position: "SRE", AppliedDate: tt.applied, InterviewDate: ptr(tt.interview),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDay, timex.FormatDate(j.AppliedDate))
			require.NotNil(t, j.InterviewDate)
			assert.True(t, tt.wantAt.Equal(*j.InterviewDate), "got %s", j.InterviewDate)
		})
	}
}

func TestUpdate_AcceptsOffsetlessDates(t *testing.T) {
	s, _ := newJobService(t)
	j := createJob(t, s, "u1", "Acme", "", "2025-07-01")

	got, err := s.Update(context.Background(), "u1", j.ID,
		decodeUpdate(t, `{"applied_date":"2025-07-18T10:00:00","follow_up_date":"2025-07-30T09:15"}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-07-18", timex.FormatDate(got.AppliedDate))
	require.NotNil(t, got.FollowUpDate)
	assert.True(t, time.Date(2025, 7, 30, 9, 15, 0, 0, time.UTC).Equal(*got.FollowUpDate))
}

func TestOwnershipIsolation(t *testing.T) {
	s, _ := newJobService(t)
	ctx := context.Background()

	j := createJob(t, s, "owner", "Acme", "", "2025-01-01")

	_, err := s.Get(ctx, "intruder", j.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Update(ctx, "intruder", j.ID, decodeUpdate(t, `{"status":"Offer"}`))
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.ErrorIs(t, s.Delete(ctx, "intruder", j.ID), common.ErrorNotFound)

	page, err := s.List(ctx, "intruder", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	stats, err := s.Stats(ctx, "intruder")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalApplications)

	still, err := s.Get(ctx, "owner", j.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, still.Status)
}

func TestGet_NonUUIDIsNotFound(t *testing.T) {
	s, _ := newJobService(t)

	_, err := s.Get(context.Background(), "u1", "123")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, "Job not found", err.Error())
}

func TestUpdate_StatusOnlyLeavesOtherFields(t *testing.T) {
	s, pub := newJobService(t)
	ctx := context.Background()

	j, err := s.Create(ctx, "u1", JobInput{
		Company: "Acme", Position: "SRE", AppliedDate: "2025-02-03",
		Notes: ptr("referral from Dana"), Location: ptr("Remote"),
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{"status":"Interview"}`))
	require.NoError(t, err)

	assert.Equal(t, models.StatusInterview, updated.Status)
	assert.Equal(t, j.Company, updated.Company)
	assert.Equal(t, j.Position, updated.Position)
	assert.Equal(t, j.AppliedDate, updated.AppliedDate)
	assert.Equal(t, j.Notes, updated.Notes)
	assert.Equal(t, j.Location, updated.Location)
	assert.Equal(t, j.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(j.UpdatedAt))

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.JobStatusChanged, pub.events[1].Type)
	assert.Equal(t, "Applied", pub.events[1].PreviousStatus)
	assert.Equal(t, "Interview", pub.events[1].Status)
}

func TestUpdate_NullSemantics(t *testing.T) {
	s, pub := newJobService(t)
	ctx := context.Background()

	j, err := s.Create(ctx, "u1", JobInput{
		Company: "Acme", Position: "SRE", AppliedDate: "2025-02-03",
		Notes: ptr("n"), JobType: ptr("Full-time"), FollowUpDate: ptr("2025-02-10"),
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{"notes":null,"job_type":null,"follow_up_date":null,"position":"Staff SRE"}`))
	require.NoError(t, err)
	assert.Nil(t, updated.Notes)
	assert.Nil(t, updated.JobType)
	assert.Nil(t, updated.FollowUpDate)
	assert.Equal(t, "Staff SRE", updated.Position)
	assert.Equal(t, events.JobUpdated, pub.events[len(pub.events)-1].Type)

	_, err = s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{"company":null}`))
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{"applied_date":"not a date"}`))
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{"status":"Hired"}`))
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestUpdate_EmptyBodyChangesNothing(t *testing.T) {
	s, pub := newJobService(t)
	ctx := context.Background()

	j, err := s.Create(ctx, "u1", JobInput{Company: "Acme", Position: "SRE", AppliedDate: "2025-02-03"})
	require.NoError(t, err)

	same, err := s.Update(ctx, "u1", j.ID, decodeUpdate(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, j.UpdatedAt, same.UpdatedAt)
	assert.Len(t, pub.events, 1)

	_, err = s.Update(ctx, "u2", j.ID, decodeUpdate(t, `{}`))
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_PaginationFiltersAndCount(t *testing.T) {
	s, _ := newJobService(t)
	ctx := context.Background()

	createJob(t, s, "u1", "Acme", "Applied", "2025-01-01")
	createJob(t, s, "u1", "Globex", "Offer", "2025-01-03")
	createJob(t, s, "u1", "acme labs", "Rejected", "2025-01-02")
	createJob(t, s, "u2", "Acme", "Offer", "2025-01-04")

	all, err := s.List(ctx, "u1", ListParams{Page: 1, Size: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Len(t, all.Jobs, all.Total)
	assert.Equal(t, "Globex", all.Jobs[0].Company)

	page2, err := s.List(ctx, "u1", ListParams{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page2.Pages)
	require.Len(t, page2.Jobs, 1)
	assert.Equal(t, "Acme", page2.Jobs[0].Company)

	acme, err := s.List(ctx, "u1", ListParams{Company: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, 2, acme.Total)
	assert.Equal(t, 10, acme.Size)

	offers, err := s.List(ctx, "u1", ListParams{Status: "Offer"})
	require.NoError(t, err)
	assert.Equal(t, 1, offers.Total)

	empty, err := s.List(ctx, "nobody", ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.Pages)
	assert.NotNil(t, empty.Jobs)

	_, err = s.List(ctx, "u1", ListParams{Page: -1})
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.List(ctx, "u1", ListParams{Size: 101})
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.List(ctx, "u1", ListParams{Status: "Nope"})
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestDelete(t *testing.T) {
	s, pub := newJobService(t)
	ctx := context.Background()

	j := createJob(t, s, "u1", "Acme", "", "2025-01-01")
	require.NoError(t, s.Delete(ctx, "u1", j.ID))
	require.ErrorIs(t, s.Delete(ctx, "u1", j.ID), common.ErrorNotFound)

	_, err := s.Get(ctx, "u1", j.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, []string{events.JobCreated, events.JobDeleted}, pub.types())
}

func TestStats(t *testing.T) {
	s, _ := newJobService(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalApplications)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Empty(t, stats.StatusBreakdown)

	createJob(t, s, "u1", "A", "Offer", "2025-01-01")
	createJob(t, s, "u1", "B", "Applied", "2025-01-01")
	createJob(t, s, "u1", "C", "Applied", "2025-01-01")

	stats, err = s.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalApplications)
	assert.Equal(t, map[models.Status]int{models.StatusOffer: 1, models.StatusApplied: 2}, stats.StatusBreakdown)
	assert.Equal(t, 33.33, stats.SuccessRate)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := NewJobService(repomanager.NewMemoryRepositoryManager(), pub, logging.Discard())

	_, err := s.Create(context.Background(), "u1", JobInput{Company: "Acme", Position: "SRE", AppliedDate: "2025-01-01"})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}
