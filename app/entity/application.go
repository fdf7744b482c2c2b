package entity

import (
	"database/sql"
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusInterview = "interview"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

// Application is a single job application owned by one user. Optional
// columns are NULL when the user left them unspecified.
type Application struct {
	ID           uint64
	UserID       uint64
	CompanyName  string
	Position     string
	CompanyEmail sql.NullString
	Location     sql.NullString
	Salary       sql.NullString
	Notes        sql.NullString
	JobURL       sql.NullString
	Status       string
	DateApplied  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewApplication builds an application with the store defaults applied:
// status falls back to pending and date_applied to now.
func NewApplication(userID uint64, companyName, position, status string, dateApplied, now time.Time) *Application {
	status = NormalizeStatus(status)
	if status == "" {
		status = StatusPending
	}
	if dateApplied.IsZero() {
		dateApplied = now
	}

	return &Application{
		UserID:      userID,
		CompanyName: companyName,
		Position:    position,
		Status:      status,
		DateApplied: dateApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NormalizeStatus trims and lowercases a status value. The status set is
// open, so unknown values are kept as-is.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// NullString maps an empty or blank value to NULL.
func NullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
