package controller

import (
	"errors"
	"net/http"
	"strconv"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/middleware"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ApplicationController struct {
	appService *service.ApplicationService
}

func NewApplicationController(appService *service.ApplicationService) *ApplicationController {
	return &ApplicationController{appService: appService}
}

func (c *ApplicationController) List(ctx echo.Context) error {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	status := entity.NormalizeStatus(ctx.FormValue("status"))
	apps, err := c.appService.List(ctx.Request().Context(), userID, status)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List applications failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewApplicationListResponse(apps, status))
}

func (c *ApplicationController) Create(ctx echo.Context) error {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	req, err := types.NewApplicationRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind application request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Application validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	app, err := c.appService.Create(ctx.Request().Context(), userID, req.ToInput())
	if err != nil {
		return writeApplicationError(ctx, err, userID, "Create application failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"application_id": app.ID,
	}).Info("Application created")

	return ctx.JSON(http.StatusCreated, httpdto.NewApplicationResponse(app))
}

// Get serves both the detail view and the edit form's current values.
func (c *ApplicationController) Get(ctx echo.Context) error {
	userID, id, ok := c.identify(ctx)
	if !ok {
		return nil
	}

	app, err := c.appService.Get(ctx.Request().Context(), userID, id)
	if err != nil {
		return writeApplicationError(ctx, err, userID, "Get application failed")
	}

	return ctx.JSON(http.StatusOK, httpdto.NewApplicationResponse(app))
}

func (c *ApplicationController) Update(ctx echo.Context) error {
	userID, id, ok := c.identify(ctx)
	if !ok {
		return nil
	}

	req, err := types.NewApplicationRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind application request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Application validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	app, err := c.appService.Update(ctx.Request().Context(), userID, id, req.ToInput())
	if err != nil {
		return writeApplicationError(ctx, err, userID, "Update application failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"application_id": app.ID,
	}).Info("Application updated")

	return ctx.JSON(http.StatusOK, httpdto.NewApplicationResponse(app))
}

func (c *ApplicationController) Delete(ctx echo.Context) error {
	userID, id, ok := c.identify(ctx)
	if !ok {
		return nil
	}

	if err := c.appService.Delete(ctx.Request().Context(), userID, id); err != nil {
		return writeApplicationError(ctx, err, userID, "Delete application failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"application_id": id,
	}).Info("Application deleted")

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "application deleted"})
}

// identify resolves the session user and the :id path parameter. When it
// returns false the response has already been written.
func (c *ApplicationController) identify(ctx echo.Context) (uint64, uint64, bool) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		_ = ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
		return 0, 0, false
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		_ = ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "application not found"})
		return 0, 0, false
	}

	return userID, id, true
}

func writeApplicationError(ctx echo.Context, err error, userID uint64, msg string) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logrus.WithField("user_id", userID).WithField("field", validationErr.Field).Debug("Application rejected")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field})
	case errors.Is(err, service.ErrApplicationNotFound):
		logrus.WithField("user_id", userID).Warn(msg + ": application not found")
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "application not found"})
	}

	logrus.WithError(err).WithField("user_id", userID).Error(msg)
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
}

func sessionUserID(ctx echo.Context) (uint64, bool) {
	userID, ok := ctx.Get(middleware.ContextUserID).(uint64)
	return userID, ok
}
