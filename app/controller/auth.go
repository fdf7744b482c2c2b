package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/middleware"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/types"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService *service.AuthService
	sessionCfg  config.SessionConfig
}

func NewAuthController(authService *service.AuthService, sessionCfg config.SessionConfig) *AuthController {
	return &AuthController{authService: authService, sessionCfg: sessionCfg}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := c.authService.Register(ctx.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			logrus.WithField("email", req.Email).Warn("Register failed: email already registered")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User registered")

	c.setSessionCookie(ctx, result)
	return ctx.JSON(http.StatusCreated, newSessionResponse(result))
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid email or password"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  result.User.ID,
		"remember": result.Remember,
	}).Info("Login successful")

	c.setSessionCookie(ctx, result)
	return ctx.JSON(http.StatusOK, newSessionResponse(result))
}

func (c *AuthController) Logout(ctx echo.Context) error {
	claims, ok := ctx.Get(middleware.ContextClaims).(*service.Claims)
	if !ok {
		logrus.Warn("Logout failed: missing session claims in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	logrus.WithField("user_id", claims.UserID).Info("Logout request received")
	if err := c.authService.Logout(ctx.Request().Context(), claims); err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	c.clearSessionCookie(ctx)
	logrus.WithField("user_id", claims.UserID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "logged out successfully"})
}

func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	req, err := types.NewRequestPasswordResetRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Password reset request validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err = c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Password reset failed: user not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "no account with that email"})
		}
		if errors.Is(err, service.ErrMailDelivery) {
			return ctx.JSON(http.StatusBadGateway, httpdto.ErrorResponse{Error: "could not send the password reset email, try again later"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset request failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password reset email sent"})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	req, err := types.NewResetPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("Reset password request received")
	if err = c.authService.ResetPassword(ctx.Request().Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			logrus.Warn("Reset password failed: token expired")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "the reset link has expired"})
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			logrus.Warn("Reset password failed: token already used")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "the reset link has already been used"})
		case errors.Is(err, service.ErrTokenInvalid):
			logrus.Warn("Reset password failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "the reset link is invalid"})
		case errors.Is(err, service.ErrWeakPassword):
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password has been reset"})
}

// setSessionCookie issues a browser-session cookie unless remember-me was
// requested, in which case the cookie outlives the browser.
func (c *AuthController) setSessionCookie(ctx echo.Context, result *dto.SessionResult) {
	cookie := &http.Cookie{
		Name:     c.sessionCfg.CookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.sessionCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if result.Remember {
		cookie.Expires = result.ExpiresAt
		cookie.MaxAge = int(c.sessionCfg.RememberTTL.Seconds())
	}
	ctx.SetCookie(cookie)
}

func (c *AuthController) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.sessionCfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.sessionCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func newSessionResponse(result *dto.SessionResult) httpdto.SessionResponse {
	return httpdto.SessionResponse{
		User:      httpdto.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Remember:  result.Remember,
	}
}
