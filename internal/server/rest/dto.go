package rest

import (
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/dmitrijs2005/jobtracker/internal/timex"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
		IsActive:  u.IsActive,
	}
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        userResponse `json:"user"`
}

func newTokenResponse(s *services.Session) tokenResponse {
	return tokenResponse{
		AccessToken: s.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.ExpiresIn,
		User:        newUserResponse(s.User),
	}
}

// jobResponse renders applied_date as a calendar date and the other
// timestamps as RFC 3339.
type jobResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Company         string          `json:"company"`
	Position        string          `json:"position"`
	Status          models.Status   `json:"status"`
	AppliedDate     string          `json:"applied_date"`
	ApplicationLink *string         `json:"application_link"`
	SalaryRange     *string         `json:"salary_range"`
	Location        *string         `json:"location"`
	JobType         *models.JobType `json:"job_type"`
	Notes           *string         `json:"notes"`
	InterviewDate   *time.Time      `json:"interview_date"`
	FollowUpDate    *time.Time      `json:"follow_up_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newJobResponse(j *models.Job) jobResponse {
	return jobResponse{
		ID:              j.ID,
		UserID:          j.UserID,
		Company:         j.Company,
		Position:        j.Position,
		Status:          j.Status,
		AppliedDate:     timex.FormatDate(j.AppliedDate),
		ApplicationLink: j.ApplicationLink,
		SalaryRange:     j.SalaryRange,
		Location:        j.Location,
		JobType:         j.JobType,
		Notes:           j.Notes,
		InterviewDate:   utc(j.InterviewDate),
		FollowUpDate:    utc(j.FollowUpDate),
		CreatedAt:       j.CreatedAt.UTC(),
		UpdatedAt:       j.UpdatedAt.UTC(),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

type jobListResponse struct {
	Jobs  []jobResponse `json:"jobs"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Pages int           `json:"pages"`
}

func newJobListResponse(p *services.JobPage) jobListResponse {
	jobs := make([]jobResponse, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		jobs = append(jobs, newJobResponse(j))
	}
	return jobListResponse{Jobs: jobs, Total: p.Total, Page: p.Page, Size: p.Size, Pages: p.Pages}
}

type statsResponse struct {
	TotalApplications int                   `json:"total_applications"`
	StatusBreakdown   map[models.Status]int `json:"status_breakdown"`
	SuccessRate       float64               `json:"success_rate"`
}

func newStatsResponse(s *services.JobStats) statsResponse {
	breakdown := s.StatusBreakdown
	if breakdown == nil {
		breakdown = map[models.Status]int{}
	}
	return statsResponse{
		TotalApplications: s.TotalApplications,
		StatusBreakdown:   breakdown,
		SuccessRate:       s.SuccessRate,
	}
}

type jobFitRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}
