package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/observability"
)

const requestIDMetadataKey = "x-request-id"

// HealthService reports the simulator's serving status over the standard
// grpc.health.v1 protocol, for orchestrators that probe with gRPC.
type HealthService struct {
	srv *health.Server
}

func (h *HealthService) Serving() {
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthService) NotServing() {
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

// NewGRPCServer builds a gRPC server exposing only the health service, with
// request-ID and metrics interceptors chained in.
func NewGRPCServer(collector *observability.Collector, log logging.Logger) (*grpc.Server, *HealthService) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RequestIDUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
		),
	)
	h := &HealthService{srv: health.NewServer()}
	healthpb.RegisterHealthServer(srv, h.srv)
	return srv, h
}

func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDMetadataKey); len(vals) > 0 && vals[0] != "" {
				ctx = logging.ContextWithRequestID(ctx, vals[0])
			}
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("rpc_method", info.FullMethod)))
		reqLog.Debug(ctx, "rpc received")
		return handler(ctx, req)
	}
}
