package controller

import (
	"context"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ServiceName    = "jobtracker"
	ServiceVersion = "1.0.0"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HomeController struct {
	db pinger
}

func NewHomeController(db pinger) *HomeController {
	return &HomeController{db: db}
}

func (c *HomeController) Index(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, httpdto.InfoResponse{Service: ServiceName, Version: ServiceVersion})
}

func (c *HomeController) Health(ctx echo.Context) error {
	if err := c.db.PingContext(ctx.Request().Context()); err != nil {
		logrus.WithError(err).Error("Health check failed")
		return ctx.JSON(http.StatusServiceUnavailable, httpdto.HealthResponse{Status: "unavailable"})
	}
	return ctx.JSON(http.StatusOK, httpdto.HealthResponse{Status: "ok"})
}
