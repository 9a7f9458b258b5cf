package models

import "time"

// Status is the pipeline stage of an application.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusInterview          Status = "Interview"
	StatusPhoneScreen        Status = "Phone Screen"
	StatusTechnicalInterview Status = "Technical Interview"
	StatusFinalInterview     Status = "Final Interview"
	StatusOffer              Status = "Offer"
	StatusRejected           Status = "Rejected"
	StatusWithdrawn          Status = "Withdrawn"
)

var Statuses = []Status{
	StatusApplied,
	StatusInterview,
	StatusPhoneScreen,
	StatusTechnicalInterview,
	StatusFinalInterview,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeInternship JobType = "Internship"
	JobTypeFreelance  JobType = "Freelance"
)

var JobTypes = []JobType{
	JobTypeFullTime,
	JobTypePartTime,
	JobTypeContract,
	JobTypeInternship,
	JobTypeFreelance,
}

func (t JobType) Valid() bool {
	for _, v := range JobTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Job is a single job application owned by one user. AppliedDate carries a
// calendar date at UTC midnight. Nil pointers are absent optional fields.
type Job struct {
	ID              string
	UserID          string
	Company         string
	Position        string
	Status          Status
	AppliedDate     time.Time
	ApplicationLink *string
	SalaryRange     *string
	Location        *string
	JobType         *JobType
	Notes           *string
	InterviewDate   *time.Time
	FollowUpDate    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobPatch is a validated partial update. A nil pointer field means
// "leave unchanged"; for optional columns a non-nil Field with Null set
// means "clear".
type JobPatch struct {
	Company         *string
	Position        *string
	Status          *Status
	AppliedDate     *time.Time
	ApplicationLink *Field[string]
	SalaryRange     *Field[string]
	Location        *Field[string]
	JobType         *Field[JobType]
	Notes           *Field[string]
	InterviewDate   *Field[time.Time]
	FollowUpDate    *Field[time.Time]
}

// Empty reports whether the patch changes nothing.
func (p JobPatch) Empty() bool {
	return p.Company == nil && p.Position == nil && p.Status == nil && p.AppliedDate == nil &&
		p.ApplicationLink == nil && p.SalaryRange == nil && p.Location == nil &&
		p.JobType == nil && p.Notes == nil && p.InterviewDate == nil && p.FollowUpDate == nil
}

// JobFilter narrows List and Count. Zero values match everything.
type JobFilter struct {
	Status  Status
	Company string
}
