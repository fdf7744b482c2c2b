package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	jobgrpc "github.com/vibast-solutions/ms-go-jobtracker/app/grpc"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeValidator struct {
	tokens map[string]*service.Claims
	err    error
}

func (v *fakeValidator) ValidateSession(_ context.Context, token string) (*service.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	claims, ok := v.tokens[token]
	if !ok {
		return nil, service.ErrInvalidSession
	}
	return claims, nil
}

type fakeLister struct {
	byUser map[uint64][]*entity.Application
}

func (f *fakeLister) ListAllByUser(_ context.Context, userID uint64) ([]*entity.Application, error) {
	return f.byUser[userID], nil
}

func okHandler(context.Context, any) (any, error) {
	return "ok", nil
}

func TestSessionUnaryInterceptor_MissingToken(t *testing.T) {
	interceptor := jobgrpc.SessionUnaryInterceptor(&fakeValidator{})
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestSessionUnaryInterceptor_InvalidToken(t *testing.T) {
	interceptor := jobgrpc.SessionUnaryInterceptor(&fakeValidator{})
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope"))
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestSessionUnaryInterceptor_BackendFailure(t *testing.T) {
	interceptor := jobgrpc.SessionUnaryInterceptor(&fakeValidator{err: errors.New("redis down")})
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc"))
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, okHandler)
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected internal, got %v", err)
	}
}

func TestSessionUnaryInterceptor_ValidToken(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*service.Claims{"abc": {UserID: 4}}}
	interceptor := jobgrpc.SessionUnaryInterceptor(validator)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "bearer abc"))

	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		claims, ok := jobgrpc.ClaimsFromContext(ctx)
		if !ok || claims.UserID != 4 {
			t.Fatalf("expected claims for user 4, got %+v", claims)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestStatisticsServer_OverBufconn(t *testing.T) {
	now := time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{byUser: map[uint64][]*entity.Application{
		4: {
			entity.NewApplication(4, "Acme", "Engineer", entity.StatusAccepted, now.AddDate(0, 0, -1), now),
			entity.NewApplication(4, "Acme", "SRE", entity.StatusPending, now.AddDate(0, 0, -2), now),
		},
	}}
	statsService := service.NewStatisticsService(lister, service.WithClock(func() time.Time { return now }))
	validator := &fakeValidator{tokens: map[string]*service.Claims{"token-4": {UserID: 4}}}

	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer(grpc.UnaryInterceptor(jobgrpc.SessionUnaryInterceptor(validator)))
	jobgrpc.RegisterStatisticsServiceServer(server, jobgrpc.NewStatisticsServer(statsService))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client := jobgrpc.NewStatisticsClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.GetStatistics(ctx); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected unauthenticated without token, got %v", err)
	}

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer token-4")
	res, err := client.GetStatistics(authed)
	if err != nil {
		t.Fatalf("get statistics failed: %v", err)
	}

	fields := res.AsMap()
	if fields["total"] != float64(2) || fields["success_rate"] != float64(50) {
		t.Fatalf("unexpected report %v", fields)
	}
	top, ok := fields["top_companies"].([]any)
	if !ok || len(top) != 1 {
		t.Fatalf("expected a single top company, got %v", fields["top_companies"])
	}
}
