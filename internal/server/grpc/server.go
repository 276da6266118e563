// Package grpc exposes the standard grpc.health.v1 service. The reported
// status follows a readiness probe, normally a database ping.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name clients can query besides "".
const ServiceName = "vidtube"

const defaultProbeInterval = 10 * time.Second

type GRPCServer struct {
	address  string
	logger   logging.Logger
	probe    func(context.Context) error
	interval time.Duration
	health   *health.Server
}

// NewGRPCServer returns a health server on address. probe may be nil, in
// which case the server always reports SERVING.
func NewGRPCServer(address string, l logging.Logger, probe func(context.Context) error) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		probe:    probe,
		interval: defaultProbeInterval,
		health:   health.NewServer(),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.checkOnce(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	return srv.Serve(listen)
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.checkOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// checkOnce runs the probe and publishes the result for both the server
// as a whole and ServiceName.
func (s *GRPCServer) checkOnce(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.probe(pctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "readiness probe failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
