package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterService exposes the standard grpc.health.v1 service on s, initially SERVING.
func RegisterService(s grpc.ServiceRegistrar) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// Watch pings db every interval and flips the overall serving status to match
// until ctx is done. The server is marked NOT_SERVING on return.
func Watch(ctx context.Context, hs *health.Server, db Pinger, interval time.Duration, onDown func(ctx context.Context, err error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		if err := db.Ping(pingCtx); err != nil {
			if onDown != nil {
				onDown(ctx, err)
			}
			hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			check()
		}
	}
}
