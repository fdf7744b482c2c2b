package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type StatisticsController struct {
	statsService *service.StatisticsService
}

func NewStatisticsController(statsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{statsService: statsService}
}

func (c *StatisticsController) Statistics(ctx echo.Context) error {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	report, err := c.statsService.Statistics(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Statistics failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, report)
}
