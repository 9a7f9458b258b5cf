package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateJob(t *testing.T, r *JobRepository, userID, company string, status models.Status, applied time.Time) *models.Job {
	t.Helper()
	j, err := r.Create(context.Background(), &models.Job{
		UserID: userID, Company: company, Position: "Engineer", Status: status, AppliedDate: applied,
	})
	require.NoError(t, err)
	return j
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	u, err := users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", IsActive: true})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	byEmail, err := users.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := users.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = users.GetUserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = users.Create(ctx, &models.User{Username: "other", Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestJobs_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().Jobs()

	j := mustCreateJob(t, jobs, "u-a", "Acme", models.StatusApplied, day(1))

	_, err := jobs.Get(ctx, j.ID, "u-b")
	require.ErrorIs(t, err, common.ErrorNotFound)

	company := "Evil"
	_, err = jobs.Update(ctx, j.ID, "u-b", models.JobPatch{Company: &company})
	require.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := jobs.Delete(ctx, j.ID, "u-b")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := jobs.List(ctx, "u-b", models.JobFilter{}, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := jobs.Get(ctx, j.ID, "u-a")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)
}

func TestJobs_ListOrderPaginationAndFilters(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().Jobs()

	mustCreateJob(t, jobs, "u", "Acme", models.StatusApplied, day(1))
	mustCreateJob(t, jobs, "u", "Globex", models.StatusOffer, day(3))
	mustCreateJob(t, jobs, "u", "ACME Labs", models.StatusOffer, day(2))

	all, err := jobs.List(ctx, "u", models.JobFilter{}, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Globex", "ACME Labs", "Acme"}, []string{all[0].Company, all[1].Company, all[2].Company})

	page, err := jobs.List(ctx, "u", models.JobFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "ACME Labs", page[0].Company)

	acme, err := jobs.List(ctx, "u", models.JobFilter{Company: "acme"}, 0, 100)
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	offers, err := jobs.Count(ctx, "u", models.JobFilter{Status: models.StatusOffer})
	require.NoError(t, err)
	assert.Equal(t, 2, offers)

	n, err := jobs.Count(ctx, "u", models.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(all), n)
}

func TestJobs_UpdatePatchSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	frozen := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }
	jobs := store.Jobs()

	notes := "first call went well"
	j, err := jobs.Create(ctx, &models.Job{
		UserID: "u", Company: "Acme", Position: "Engineer", Status: models.StatusApplied,
		AppliedDate: day(5), Notes: &notes,
	})
	require.NoError(t, err)

	status := models.StatusInterview
	updated, err := jobs.Update(ctx, j.ID, "u", models.JobPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterview, updated.Status)
	assert.Equal(t, "Acme", updated.Company)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.True(t, updated.UpdatedAt.After(j.UpdatedAt), "updated_at must advance even with a frozen clock")

	clearNotes := models.Clear[string]()
	cleared, err := jobs.Update(ctx, j.ID, "u", models.JobPatch{Notes: &clearNotes})
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)
	assert.True(t, cleared.UpdatedAt.After(updated.UpdatedAt))
}

func TestJobs_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().Jobs()

	loc := "Berlin"
	j, err := jobs.Create(ctx, &models.Job{UserID: "u", Company: "Acme", Position: "Eng", Status: models.StatusApplied, AppliedDate: day(1), Location: &loc})
	require.NoError(t, err)

	*j.Location = "Paris"

	got, err := jobs.Get(ctx, j.ID, "u")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", *got.Location)
}

func TestJobs_DeleteAndCountByStatus(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().Jobs()

	a := mustCreateJob(t, jobs, "u", "A", models.StatusApplied, day(1))
	mustCreateJob(t, jobs, "u", "B", models.StatusApplied, day(2))
	mustCreateJob(t, jobs, "u", "C", models.StatusOffer, day(3))
	mustCreateJob(t, jobs, "other", "D", models.StatusRejected, day(3))

	counts, err := jobs.CountByStatus(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, map[models.Status]int{models.StatusApplied: 2, models.StatusOffer: 1}, counts)

	ok, err := jobs.Delete(ctx, a.ID, "u")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = jobs.Get(ctx, a.ID, "u")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	jobs := NewStore().Jobs()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j, err := jobs.Create(ctx, &models.Job{UserID: "u", Company: "Acme", Position: "Eng", Status: models.StatusApplied, AppliedDate: day(1)})
			if err != nil {
				return
			}
			_, _ = jobs.List(ctx, "u", models.JobFilter{}, 0, 100)
			_, _ = jobs.Delete(ctx, j.ID, "u")
		}()
	}
	wg.Wait()

	n, err := jobs.Count(ctx, "u", models.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_AtomicRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Atomic(func(users *UserRepository, _ *JobRepository) error {
		_, err := users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
		require.NoError(t, err)
		return common.ErrorValidation
	})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, store.Atomic(func(users *UserRepository, _ *JobRepository) error {
		_, err := users.Create(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
		return err
	}))
	_, err = store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
}

func TestStore_AtomicRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	outside := store.Jobs()

	kept := mustCreateJob(t, outside, "u1", "Acme", models.StatusApplied, day(1))
	edited := mustCreateJob(t, outside, "u1", "Globex", models.StatusApplied, day(2))
	removed := mustCreateJob(t, outside, "u1", "Initech", models.StatusApplied, day(3))

	var concurrent *models.Job
	err := store.Atomic(func(_ *UserRepository, jobs *JobRepository) error {
		interview := models.StatusInterview
		_, err := jobs.Update(ctx, edited.ID, "u1", models.JobPatch{Status: &interview})
		require.NoError(t, err)
		ok, err := jobs.Delete(ctx, removed.ID, "u1")
		require.NoError(t, err)
		require.True(t, ok)
		mustCreateJob(t, jobs, "u1", "Hooli", models.StatusApplied, day(4))

		// Another request writing while the transaction is open.
		concurrent = mustCreateJob(t, outside, "u2", "Umbrella", models.StatusApplied, day(5))
		offer := models.StatusOffer
		_, err = outside.Update(ctx, kept.ID, "u1", models.JobPatch{Status: &offer})
		require.NoError(t, err)

		return common.ErrorValidation
	})
	require.ErrorIs(t, err, common.ErrorValidation)

	got, err := outside.Get(ctx, concurrent.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Umbrella", got.Company)

	got, err = outside.Get(ctx, kept.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffer, got.Status)

	got, err = outside.Get(ctx, edited.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, got.Status)
	assert.Equal(t, edited.UpdatedAt, got.UpdatedAt)

	_, err = outside.Get(ctx, removed.ID, "u1")
	require.NoError(t, err)

	n, err := outside.Count(ctx, "u1", models.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_AtomicRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.Panics(t, func() {
		_ = store.Atomic(func(users *UserRepository, _ *JobRepository) error {
			_, err := users.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com"})
			require.NoError(t, err)
			panic("boom")
		})
	})

	_, err := store.Users().GetUserByUsername(ctx, "bob")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
