package model

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
)

func (t JobType) Valid() bool {
	switch t {
	case JobFullTime, JobPartTime, JobContract, JobInternship:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid_level"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelEntry, LevelMid, LevelSenior, LevelLead, LevelExecutive:
		return true
	}
	return false
}

// DefaultCurrency is used when a job is posted without a salary currency.
const DefaultCurrency = "Ksh"

// Job mirrors the `jobs` table.  IndustryID and Locations are copied from the
// company when the job is created and are never taken from the client.
type Job struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Slug                string          `json:"slug"`
	CompanyID           string          `json:"company_id"`
	CompanyName         string          `json:"company_name"`
	IndustryID          string          `json:"industry_id"`
	IndustryName        string          `json:"industry_name"`
	Locations           []Location      `json:"locations"`
	JobType             JobType         `json:"job_type"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
	Description         string          `json:"description"`
	Requirements        string          `json:"requirements"`
	Responsibilities    string          `json:"responsibilities"`
	SkillsRequired      string          `json:"skills_required"`
	SalaryMin           *float64        `json:"salary_min"`
	SalaryMax           *float64        `json:"salary_max"`
	SalaryCurrency      string          `json:"salary_currency"`
	IsSalaryVisible     bool            `json:"is_salary_visible"`
	IsActive            bool            `json:"is_active"`
	ApplicationDeadline *time.Time      `json:"application_deadline"`
	PostedBy            string          `json:"posted_by"`
	PostedOn            time.Time       `json:"posted_on"`
	UpdatedOn           time.Time       `json:"updated_on"`
}

// IsExpired reports whether the application deadline day (UTC) is over.
// Jobs without a deadline never expire.
func (j Job) IsExpired(now time.Time) bool {
	if j.ApplicationDeadline == nil {
		return false
	}
	d := j.ApplicationDeadline.UTC()
	closes := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return !now.Before(closes)
}

// AcceptsApplications is true for active jobs whose deadline has not passed.
func (j Job) AcceptsApplications(now time.Time) bool {
	return j.IsActive && !j.IsExpired(now)
}

var moneyPrinter = message.NewPrinter(language.English)

// SalaryRange formats the salary band, e.g. "Ksh 50,000.00 - 80,000.00".
func (j Job) SalaryRange() string {
	switch {
	case j.SalaryMin != nil && j.SalaryMax != nil:
		return moneyPrinter.Sprintf("%s %.2f - %.2f", j.SalaryCurrency, *j.SalaryMin, *j.SalaryMax)
	case j.SalaryMin != nil:
		return moneyPrinter.Sprintf("%s %.2f+", j.SalaryCurrency, *j.SalaryMin)
	}
	return "Not specified"
}

// Skills splits skills_required into a list.
func (j Job) Skills() []string {
	return splitComma(j.SkillsRequired)
}

// JoinLocations renders locations separated by " | ".  It returns nil when
// there are none so the JSON field becomes null.
func JoinLocations(locs []Location) *string {
	if len(locs) == 0 {
		return nil
	}
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = l.String()
	}
	s := strings.Join(parts, " | ")
	return &s
}
