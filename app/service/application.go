package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
)

var ErrApplicationNotFound = errors.New("application not found")

const dateOnlyLayout = "2006-01-02"

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

type ApplicationServiceOption func(*ApplicationService)

type ApplicationService struct {
	db      *sql.DB
	appRepo *repository.ApplicationRepository
	now     func() time.Time
}

func NewApplicationService(db *sql.DB, appRepo *repository.ApplicationRepository, opts ...ApplicationServiceOption) *ApplicationService {
	svc := &ApplicationService{
		db:      db,
		appRepo: appRepo,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithApplicationClock(now func() time.Time) ApplicationServiceOption {
	return func(s *ApplicationService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *ApplicationService) Create(ctx context.Context, userID uint64, in dto.ApplicationInput) (*entity.Application, error) {
	now := s.now()
	fields, err := s.parseInput(in, now.Location())
	if err != nil {
		return nil, err
	}

	app := entity.NewApplication(userID, fields.companyName, fields.position, in.Status, fields.dateApplied, now)
	fields.applyOptional(app)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err = s.appRepo.WithTx(tx).Create(ctx, app); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, userID, id uint64) (*entity.Application, error) {
	app, err := s.appRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, userID uint64, status string) ([]*entity.Application, error) {
	return s.appRepo.ListByUser(ctx, userID, entity.NormalizeStatus(status))
}

// Update replaces every editable field. A blank status or date keeps the
// stored value; blank optional fields become unspecified.
func (s *ApplicationService) Update(ctx context.Context, userID, id uint64, in dto.ApplicationInput) (*entity.Application, error) {
	now := s.now()
	fields, err := s.parseInput(in, now.Location())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.appRepo.WithTx(tx)
	app, err := txRepo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}

	app.CompanyName = fields.companyName
	app.Position = fields.position
	if status := entity.NormalizeStatus(in.Status); status != "" {
		app.Status = status
	}
	if !fields.dateApplied.IsZero() {
		app.DateApplied = fields.dateApplied
	}
	fields.applyOptional(app)
	app.UpdatedAt = now

	rows, err := txRepo.Update(ctx, app)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrApplicationNotFound
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return app, nil
}

func (s *ApplicationService) Delete(ctx context.Context, userID, id uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := s.appRepo.WithTx(tx).DeleteForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrApplicationNotFound
	}

	return tx.Commit()
}

type applicationFields struct {
	companyName  string
	position     string
	companyEmail sql.NullString
	location     sql.NullString
	salary       sql.NullString
	notes        sql.NullString
	jobURL       sql.NullString
	dateApplied  time.Time
}

func (f applicationFields) applyOptional(app *entity.Application) {
	app.CompanyEmail = f.companyEmail
	app.Location = f.location
	app.Salary = f.salary
	app.Notes = f.notes
	app.JobURL = f.jobURL
}

func (s *ApplicationService) parseInput(in dto.ApplicationInput, loc *time.Location) (*applicationFields, error) {
	fields := &applicationFields{
		companyName:  strings.TrimSpace(in.CompanyName),
		position:     strings.TrimSpace(in.Position),
		companyEmail: entity.NullString(in.CompanyEmail),
		location:     entity.NullString(in.Location),
		salary:       entity.NullString(in.Salary),
		notes:        entity.NullString(in.Notes),
		jobURL:       entity.NullString(in.JobURL),
	}

	if fields.companyName == "" {
		return nil, &ValidationError{Field: "company_name", Msg: "is required"}
	}
	if fields.position == "" {
		return nil, &ValidationError{Field: "position", Msg: "is required"}
	}

	if fields.companyEmail.Valid {
		if _, err := mail.ParseAddress(fields.companyEmail.String); err != nil {
			return nil, &ValidationError{Field: "company_email", Msg: "is not a valid email address"}
		}
	}

	if fields.jobURL.Valid {
		u, err := url.ParseRequestURI(fields.jobURL.String)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, &ValidationError{Field: "job_url", Msg: "must be an absolute http or https URL"}
		}
	}

	if raw := strings.TrimSpace(in.DateApplied); raw != "" {
		dateApplied, err := parseDateApplied(raw, loc)
		if err != nil {
			return nil, &ValidationError{Field: "date_applied", Msg: "must be YYYY-MM-DD or RFC 3339"}
		}
		fields.dateApplied = dateApplied
	}

	return fields, nil
}

func parseDateApplied(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateOnlyLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
