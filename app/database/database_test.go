package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/database"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/DATA-DOG/go-sqlmock"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(ctx, db, config.DriverSQLite); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestMigrate_MySQLStatements(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS users .+UNIQUE KEY uq_users_canonical_email`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS applications .+ON DELETE CASCADE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := database.Migrate(context.Background(), db, config.DriverMySQL); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db, "oracle"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSQLite_RepositoriesRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	users := repository.NewUserRepository(db)
	apps := repository.NewApplicationRepository(db)

	owner := &entity.User{Name: "Jane", Email: "jane@example.com", CanonicalEmail: "jane@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	other := &entity.User{Name: "Sam", Email: "sam@example.com", CanonicalEmail: "sam@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	if err := users.Create(ctx, owner); err != nil {
		t.Fatalf("create owner failed: %v", err)
	}
	if err := users.Create(ctx, other); err != nil {
		t.Fatalf("create other failed: %v", err)
	}

	dup := &entity.User{Name: "Jane 2", Email: "JANE@example.com", CanonicalEmail: "jane@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	if err := users.Create(ctx, dup); err == nil {
		t.Fatalf("expected unique canonical_email violation")
	}

	app := entity.NewApplication(owner.ID, "Acme", "Engineer", "", time.Time{}, now)
	app.Notes = entity.NullString("first contact")
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create application failed: %v", err)
	}

	found, err := apps.FindByIDForUser(ctx, app.ID, owner.ID)
	if err != nil || found == nil {
		t.Fatalf("expected application for owner, got %v (%v)", found, err)
	}
	if found.Notes.String != "first contact" || found.Location.Valid || !found.DateApplied.Equal(now) {
		t.Fatalf("unexpected application %+v", found)
	}

	if foreign, err := apps.FindByIDForUser(ctx, app.ID, other.ID); err != nil || foreign != nil {
		t.Fatalf("expected no application for other user, got %v (%v)", foreign, err)
	}
	if rows, err := apps.DeleteForUser(ctx, app.ID, other.ID); err != nil || rows != 0 {
		t.Fatalf("expected foreign delete to affect nothing, got %d (%v)", rows, err)
	}

	owner.ResetTokenID = entity.NullString("token-1")
	if err := users.Update(ctx, owner, now.Add(time.Minute)); err != nil {
		t.Fatalf("arm reset token failed: %v", err)
	}

	rows, err := users.ConsumeResetToken(ctx, owner.ID, "token-0", "stale-hash", now)
	if err != nil || rows != 0 {
		t.Fatalf("expected superseded token to be a no-op, got %d (%v)", rows, err)
	}
	rows, err = users.ConsumeResetToken(ctx, owner.ID, "token-1", "new-hash", now)
	if err != nil || rows != 1 {
		t.Fatalf("expected first consume to succeed, got %d (%v)", rows, err)
	}
	rows, err = users.ConsumeResetToken(ctx, owner.ID, "token-1", "other-hash", now)
	if err != nil || rows != 0 {
		t.Fatalf("expected second consume to be a no-op, got %d (%v)", rows, err)
	}

	reloaded, err := users.FindByID(ctx, owner.ID)
	if err != nil || reloaded == nil || reloaded.PasswordHash != "new-hash" || !reloaded.ResetTokenUsed || reloaded.ResetTokenID.String != "token-1" {
		t.Fatalf("unexpected user after consume %+v (%v)", reloaded, err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", owner.ID); err != nil {
		t.Fatalf("delete user failed: %v", err)
	}
	remaining, err := apps.ListAllByUser(ctx, owner.ID)
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected applications to cascade, got %d (%v)", len(remaining), err)
	}
}
