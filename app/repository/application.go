package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

const applicationColumns = `id, user_id, company_name, position, company_email, location, salary, notes, job_url,
		       status, date_applied, created_at, updated_at`

// ApplicationRepository never reads or writes a row without the owning user id
// in the WHERE clause.
type ApplicationRepository struct {
	db DBTX
}

func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) WithTx(tx *sql.Tx) *ApplicationRepository {
	return &ApplicationRepository{db: tx}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO applications (user_id, company_name, position, company_email, location, salary, notes, job_url, status, date_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		app.UserID,
		app.CompanyName,
		app.Position,
		app.CompanyEmail,
		app.Location,
		app.Salary,
		app.Notes,
		app.JobURL,
		app.Status,
		app.DateApplied,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	app.ID = uint64(id)
	return nil
}

func (r *ApplicationRepository) FindByIDForUser(ctx context.Context, id, userID uint64) (*entity.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications WHERE id = ? AND user_id = ?
	`
	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ListByUser returns the user's applications newest first, optionally
// filtered by status.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uint64, status string) ([]*entity.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications WHERE user_id = ?
		ORDER BY date_applied DESC, id DESC
	`
	args := []interface{}{userID}
	if status != "" {
		query = `
		SELECT ` + applicationColumns + `
		FROM applications WHERE user_id = ? AND status = ?
		ORDER BY date_applied DESC, id DESC
	`
		args = append(args, status)
	}
	return r.list(ctx, query, args...)
}

// ListAllByUser returns the user's applications in insertion order.
func (r *ApplicationRepository) ListAllByUser(ctx context.Context, userID uint64) ([]*entity.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications WHERE user_id = ?
		ORDER BY id
	`
	return r.list(ctx, query, userID)
}

func (r *ApplicationRepository) Update(ctx context.Context, app *entity.Application) (int64, error) {
	query := `
		UPDATE applications SET
			company_name = ?,
			position = ?,
			company_email = ?,
			location = ?,
			salary = ?,
			notes = ?,
			job_url = ?,
			status = ?,
			date_applied = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		app.CompanyName,
		app.Position,
		app.CompanyEmail,
		app.Location,
		app.Salary,
		app.Notes,
		app.JobURL,
		app.Status,
		app.DateApplied,
		app.UpdatedAt,
		app.ID,
		app.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ApplicationRepository) DeleteForUser(ctx context.Context, id, userID uint64) (int64, error) {
	query := `DELETE FROM applications WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]*entity.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

func scanApplication(scan rowScanner) (*entity.Application, error) {
	app := &entity.Application{}
	if err := scan(
		&app.ID,
		&app.UserID,
		&app.CompanyName,
		&app.Position,
		&app.CompanyEmail,
		&app.Location,
		&app.Salary,
		&app.Notes,
		&app.JobURL,
		&app.Status,
		&app.DateApplied,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return app, nil
}
