package grpc

import (
	"context"
	"net"
	"time"

	"movie-rental-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "movierental.RentalService"

// Pinger is satisfied by the storage backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 and reflection.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	pinger Pinger
}

func NewHealthServer(pinger Pinger) *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	// Register reflection service for grpcurl
	reflection.Register(s)

	return &HealthServer{server: s, health: h, pinger: pinger}
}

func (h *HealthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Check pings the store once and publishes the result.
func (h *HealthServer) Check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.setStatus(status)
}

// Watch re-runs Check every interval until ctx is done.
func (h *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval/2)
			h.Check(pingCtx)
			cancel()
		}
	}
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.Check(context.Background())
	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	return h.server.Serve(lis)
}

// Stop reports NOT_SERVING and drains in-flight calls.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
