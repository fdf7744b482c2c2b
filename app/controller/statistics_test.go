package controller_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-jobtracker/app/controller"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
)

func TestStatistics_ReturnsReport(t *testing.T) {
	c, mock := newControllersWithMock(t)

	mock.ExpectQuery(listAllApplicationsQuery).
		WithArgs(uint64(4)).
		WillReturnRows(applicationRows(4, "interview"))

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	rec := httptest.NewRecorder()
	if err := c.stats.Statistics(authedContext(req, rec, 4)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["total"] != float64(1) || body["interview_rate"] != float64(100) {
		t.Fatalf("unexpected report %v", body)
	}
	if trend, ok := body["monthly_trend"].([]any); !ok || len(trend) != 3 {
		t.Fatalf("expected 3 trend entries, got %v", body["monthly_trend"])
	}
	if body["most_active_day"] != "Saturday" {
		t.Fatalf("expected Saturday, got %v", body["most_active_day"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatistics_EmptyUser(t *testing.T) {
	c, mock := newControllersWithMock(t)

	mock.ExpectQuery(listAllApplicationsQuery).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(applicationColumns))

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	rec := httptest.NewRecorder()
	if err := c.stats.Statistics(authedContext(req, rec, 4)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := decodeBody(t, rec)
	if body["total"] != float64(0) || body["response_rate"] != float64(0) || body["most_active_day"] != "N/A" {
		t.Fatalf("unexpected empty report %v", body)
	}
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error {
	return p.err
}

func TestHome_IndexAndHealth(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	if err := controller.NewHomeController(fakePinger{}).Index(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := decodeBody(t, rec); body["service"] != controller.ServiceName {
		t.Fatalf("unexpected index body %v", body)
	}

	rec = httptest.NewRecorder()
	if err := controller.NewHomeController(fakePinger{}).Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	if err := controller.NewHomeController(fakePinger{err: errors.New("down")}).Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
