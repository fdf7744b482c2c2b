package grpc

import (
	"context"
	"encoding/json"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/stats"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	StatisticsServiceName             = "jobtracker.v1.StatisticsService"
	StatisticsGetStatisticsFullMethod = "/" + StatisticsServiceName + "/GetStatistics"
)

type StatisticsServiceServer interface {
	GetStatistics(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// StatisticsServiceDesc describes the service without generated stubs. The
// report travels as a google.protobuf.Struct with the same keys as the HTTP
// JSON body.
var StatisticsServiceDesc = gogrpc.ServiceDesc{
	ServiceName: StatisticsServiceName,
	HandlerType: (*StatisticsServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "GetStatistics",
			Handler:    getStatisticsHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "jobtracker/v1/statistics.proto",
}

func RegisterStatisticsServiceServer(s gogrpc.ServiceRegistrar, srv StatisticsServiceServer) {
	s.RegisterService(&StatisticsServiceDesc, srv)
}

func getStatisticsHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatisticsServiceServer).GetStatistics(ctx, in)
	}

	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StatisticsGetStatisticsFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatisticsServiceServer).GetStatistics(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type StatisticsServer struct {
	statsService *service.StatisticsService
}

func NewStatisticsServer(statsService *service.StatisticsService) *StatisticsServer {
	return &StatisticsServer{statsService: statsService}
}

func (s *StatisticsServer) GetStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	logrus.WithField("user_id", claims.UserID).Info("Statistics request received (grpc)")
	report, err := s.statsService.Statistics(ctx, claims.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("Statistics failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	res, err := reportToStruct(report)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode statistics report (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return res, nil
}

func reportToStruct(report *stats.Report) (*structpb.Struct, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	return structpb.NewStruct(fields)
}

type StatisticsClient struct {
	cc gogrpc.ClientConnInterface
}

func NewStatisticsClient(cc gogrpc.ClientConnInterface) *StatisticsClient {
	return &StatisticsClient{cc: cc}
}

func (c *StatisticsClient) GetStatistics(ctx context.Context, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StatisticsGetStatisticsFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
