package api

import (
	"encoding/json"
	"time"
)

// NotificationType tags how a notification should be presented
type NotificationType string

const (
	NotificationInfo              NotificationType = "info"
	NotificationSuccess           NotificationType = "success"
	NotificationWarning           NotificationType = "warning"
	NotificationError             NotificationType = "error"
	NotificationApplicationUpdate NotificationType = "application_update"
	NotificationInterview         NotificationType = "interview"
)

// Notification is a server-created message for the current user
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// UnmarshalJSON accepts both id and _id, and isRead as an alias of read.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	var aux struct {
		plain
		MongoID string `json:"_id"`
		IsRead  *bool  `json:"isRead"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = Notification(aux.plain)
	if n.ID == "" {
		n.ID = aux.MongoID
	}
	if aux.IsRead != nil && *aux.IsRead {
		n.Read = true
	}
	return nil
}

// unmarshalID decodes data into v and fills *id from _id when the payload
// carries no id.
func unmarshalID(data []byte, v any, id *string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if *id != "" {
		return nil
	}
	var aux struct {
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*id = aux.MongoID
	return nil
}

// ApplicationStatus is the hiring pipeline stage of an application
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterview   ApplicationStatus = "interview"
	StatusOffered     ApplicationStatus = "offered"
	StatusHired       ApplicationStatus = "hired"
	StatusRejected    ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusUnderReview, StatusShortlisted, StatusInterview,
		StatusOffered, StatusHired, StatusRejected:
		return true
	}
	return false
}

// Company is the public face of a startup on a job listing
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

func (c *Company) UnmarshalJSON(data []byte) error {
	type plain Company
	return unmarshalID(data, (*plain)(c), &c.ID)
}

// Job is a posted position
type Job struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location,omitempty"`
	Type        string       `json:"type,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Active      bool         `json:"isActive"`
	Company     Ref[Company] `json:"company"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// UnmarshalJSON accepts _id as an alias of id.
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	return unmarshalID(data, (*plain)(j), &j.ID)
}

// Student is the applicant side of an application
type Student struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

func (s *Student) UnmarshalJSON(data []byte) error {
	type plain Student
	return unmarshalID(data, (*plain)(s), &s.ID)
}

// Application links a student to a job
type Application struct {
	ID      string            `json:"id"`
	Job     Ref[Job]          `json:"job"`
	Student Ref[Student]      `json:"student"`
	Status  ApplicationStatus `json:"status"`
	// StatusVisible is the startup's decision to reveal Status to the student
	StatusVisible bool      `json:"statusVisible"`
	ResumeURL     string    `json:"resumeUrl,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (a *Application) UnmarshalJSON(data []byte) error {
	type plain Application
	return unmarshalID(data, (*plain)(a), &a.ID)
}

// StartupProfile is the company-side profile, including its plan
type StartupProfile struct {
	ID               string `json:"id"`
	CompanyName      string `json:"companyName"`
	Industry         string `json:"industry,omitempty"`
	Website          string `json:"website,omitempty"`
	SubscriptionPlan string `json:"subscriptionPlan,omitempty"`
}

func (p *StartupProfile) UnmarshalJSON(data []byte) error {
	type plain StartupProfile
	return unmarshalID(data, (*plain)(p), &p.ID)
}

// Plan returns the recorded subscription plan; a nil profile has none.
func (p *StartupProfile) Plan() string {
	if p == nil {
		return ""
	}
	return p.SubscriptionPlan
}

// StudentProfile is the applicant-side profile
type StudentProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	University string   `json:"university,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	ResumeURL  string   `json:"resumeUrl,omitempty"`
	PhotoURL   string   `json:"photoUrl,omitempty"`
}

func (p *StudentProfile) UnmarshalJSON(data []byte) error {
	type plain StudentProfile
	return unmarshalID(data, (*plain)(p), &p.ID)
}

// AnalyticsSummary is the startup dashboard rollup
type AnalyticsSummary struct {
	ActiveJobs         int                       `json:"activeJobs"`
	TotalApplications  int                       `json:"totalApplications"`
	ByStatus           map[ApplicationStatus]int `json:"byStatus,omitempty"`
	InterviewsUpcoming int                       `json:"interviewsUpcoming"`
}

// Checkout is a payment session created for a plan upgrade
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
