package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type sessionClaimsKey struct{}

type sessionValidator interface {
	ValidateSession(ctx context.Context, tokenString string) (*service.Claims, error)
}

// SessionUnaryInterceptor authenticates every call with the same session
// token the HTTP API issues, passed as "authorization: Bearer <token>".
func SessionUnaryInterceptor(validator sessionValidator) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		claims, err := validateIncomingSession(ctx, validator)
		if err != nil {
			return nil, err
		}

		return handler(context.WithValue(ctx, sessionClaimsKey{}, claims), req)
	}
}

func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(sessionClaimsKey{}).(*service.Claims)
	return claims, ok
}

func validateIncomingSession(ctx context.Context, validator sessionValidator) (*service.Claims, error) {
	token := incomingBearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	claims, err := validator.ValidateSession(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		logrus.WithError(err).Error("Session validation failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return claims, nil
}

func incomingBearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}

	parts := strings.Fields(values[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
