package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/controller"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
)

const (
	findByCanonicalEmailQuery = `(?s)SELECT id, name, email, canonical_email, password_hash, reset_token_id, reset_token_used, created_at, updated_at\s+FROM users WHERE canonical_email = \?`
	insertUserQuery           = `(?s)INSERT INTO users \(name, email, canonical_email, password_hash, reset_token_id, reset_token_used, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)`
	updateUserQuery           = `(?s)UPDATE users SET\s+name = \?,.+reset_token_id = \?,.+WHERE id = \?`
	consumeResetTokenQuery    = `(?s)UPDATE users SET\s+password_hash = \?,.+WHERE id = \? AND reset_token_id = \? AND reset_token_used = \?`
	insertApplicationQuery    = `(?s)INSERT INTO applications \(user_id, company_name, position, .+\)\s+VALUES`
	findApplicationQuery      = `(?s)SELECT id, user_id, .+\s+FROM applications WHERE id = \? AND user_id = \?`
	listApplicationsQuery     = `(?s)SELECT id, user_id, .+\s+FROM applications WHERE user_id = \?\s+ORDER BY date_applied DESC`
	listByStatusQuery         = `(?s)SELECT id, user_id, .+\s+FROM applications WHERE user_id = \? AND status = \?`
	listAllApplicationsQuery  = `(?s)SELECT id, user_id, .+\s+FROM applications WHERE user_id = \?\s+ORDER BY id`
	updateApplicationQuery    = `(?s)UPDATE applications SET\s+company_name = \?,.+WHERE id = \? AND user_id = \?`
	deleteApplicationQuery    = `(?s)DELETE FROM applications WHERE id = \? AND user_id = \?`
)

var userColumns = []string{
	"id",
	"name",
	"email",
	"canonical_email",
	"password_hash",
	"reset_token_id",
	"reset_token_used",
	"created_at",
	"updated_at",
}

var applicationColumns = []string{
	"id",
	"user_id",
	"company_name",
	"position",
	"company_email",
	"location",
	"salary",
	"notes",
	"job_url",
	"status",
	"date_applied",
	"created_at",
	"updated_at",
}

const cookieName = "jobtracker_session"

var fixedNow = time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)

type recordingMailer struct {
	link string
	err  error
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _, _, link string) error {
	m.link = link
	return m.err
}

type controllers struct {
	auth   *controller.AuthController
	apps   *controller.ApplicationController
	stats  *controller.StatisticsController
	mailer *recordingMailer
}

func newControllersWithMock(t *testing.T) (*controllers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		App: config.AppConfig{PublicURL: "http://jobs.test"},
		Session: config.SessionConfig{
			Secret:      "test-secret",
			TTL:         24 * time.Hour,
			RememberTTL: 15 * 24 * time.Hour,
			CookieName:  cookieName,
		},
		Tokens: config.TokenConfig{ResetTTL: time.Hour},
		Password: config.PasswordConfig{
			Policy: config.PasswordPolicy{MinLength: 8},
		},
	}

	clock := func() time.Time { return fixedNow }
	mailer := &recordingMailer{}
	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewApplicationRepository(db)

	authService := service.NewAuthService(db, userRepo, mailer, cfg, service.WithAuthClock(clock))
	appService := service.NewApplicationService(db, appRepo, service.WithApplicationClock(clock))
	statsService := service.NewStatisticsService(appRepo, service.WithClock(clock))

	return &controllers{
		auth:   controller.NewAuthController(authService, cfg.Session),
		apps:   controller.NewApplicationController(appService),
		stats:  controller.NewStatisticsController(statsService),
		mailer: mailer,
	}, mock
}

func newJSONRequest(t *testing.T, method, path string, body any) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func newFormRequest(method, path, form string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json: %v (%s)", err, rec.Body.String())
	}
	return body
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
