package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

type InfoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type UserResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SessionResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Remember  bool         `json:"remember"`
}

type ApplicationResponse struct {
	ID           uint64    `json:"id"`
	CompanyName  string    `json:"company_name"`
	Position     string    `json:"position"`
	CompanyEmail string    `json:"company_email,omitempty"`
	Location     string    `json:"location,omitempty"`
	Salary       string    `json:"salary,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	JobURL       string    `json:"job_url,omitempty"`
	Status       string    `json:"status"`
	DateApplied  time.Time `json:"date_applied"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Count        int                   `json:"count"`
	Status       string                `json:"status,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func NewApplicationResponse(app *entity.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:           app.ID,
		CompanyName:  app.CompanyName,
		Position:     app.Position,
		CompanyEmail: app.CompanyEmail.String,
		Location:     app.Location.String,
		Salary:       app.Salary.String,
		Notes:        app.Notes.String,
		JobURL:       app.JobURL.String,
		Status:       app.Status,
		DateApplied:  app.DateApplied,
		CreatedAt:    app.CreatedAt,
		UpdatedAt:    app.UpdatedAt,
	}
}

func NewApplicationListResponse(apps []*entity.Application, status string) ApplicationListResponse {
	items := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, NewApplicationResponse(app))
	}
	return ApplicationListResponse{
		Applications: items,
		Count:        len(items),
		Status:       status,
	}
}
