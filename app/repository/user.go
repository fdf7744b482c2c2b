package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (name, email, canonical_email, password_hash, reset_token_id, reset_token_used, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.CanonicalEmail,
		user.PasswordHash,
		user.ResetTokenID,
		user.ResetTokenUsed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.User, error) {
	query := `
		SELECT id, name, email, canonical_email, password_hash, reset_token_id, reset_token_used, created_at, updated_at
		FROM users WHERE canonical_email = ?
	`
	return r.findOne(ctx, query, canonicalEmail)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, name, email, canonical_email, password_hash, reset_token_id, reset_token_used, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User, now time.Time) error {
	query := `
		UPDATE users SET
			name = ?,
			email = ?,
			canonical_email = ?,
			password_hash = ?,
			reset_token_id = ?,
			reset_token_used = ?,
			updated_at = ?
		WHERE id = ?
	`
	user.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.CanonicalEmail,
		user.PasswordHash,
		user.ResetTokenID,
		user.ResetTokenUsed,
		user.UpdatedAt,
		user.ID,
	)
	return err
}

// ConsumeResetToken stores the new password hash and flips reset_token_used
// in one statement. It returns 0 when tokenID is no longer the armed token or
// the flag was already set.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, userID uint64, tokenID, passwordHash string, now time.Time) (int64, error) {
	query := `
		UPDATE users SET
			password_hash = ?,
			reset_token_used = ?,
			updated_at = ?
		WHERE id = ? AND reset_token_id = ? AND reset_token_used = ?
	`
	result, err := r.db.ExecContext(ctx, query, passwordHash, true, now, userID, tokenID, false)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	if err := scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CanonicalEmail,
		&user.PasswordHash,
		&user.ResetTokenID,
		&user.ResetTokenUsed,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return user, nil
}
