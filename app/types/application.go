package types

import (
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"

	"github.com/labstack/echo/v4"
)

// ApplicationRequest carries the editable fields of an application. Optional
// fields left blank are stored as unspecified.
type ApplicationRequest struct {
	CompanyName  string `json:"company_name" form:"company_name"`
	Position     string `json:"position" form:"position"`
	CompanyEmail string `json:"company_email" form:"company_email"`
	Location     string `json:"location" form:"location"`
	Salary       string `json:"salary" form:"salary"`
	Notes        string `json:"notes" form:"notes"`
	JobURL       string `json:"job_url" form:"job_url"`
	Status       string `json:"status" form:"status"`
	DateApplied  string `json:"date_applied" form:"date_applied"`
}

func NewApplicationRequestFromContext(ctx echo.Context) (*ApplicationRequest, error) {
	var body ApplicationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ApplicationRequest) Validate() error {
	if strings.TrimSpace(r.CompanyName) == "" || strings.TrimSpace(r.Position) == "" {
		return errors.New("company_name and position are required")
	}

	return nil
}

func (r *ApplicationRequest) ToInput() dto.ApplicationInput {
	return dto.ApplicationInput{
		CompanyName:  r.CompanyName,
		Position:     r.Position,
		CompanyEmail: r.CompanyEmail,
		Location:     r.Location,
		Salary:       r.Salary,
		Notes:        r.Notes,
		JobURL:       r.JobURL,
		Status:       r.Status,
		DateApplied:  r.DateApplied,
	}
}
