package health

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cory-johannsen/fitquest/internal/config"
)

func testConfig() config.HealthConfig {
	return config.HealthConfig{ProbeInterval: 20 * time.Millisecond, ProbeTimeout: time.Second}
}

func TestProbeOnce_PublishesPerProbeAndOverall(t *testing.T) {
	var redisDown atomic.Bool
	s := NewServer(testConfig(), zaptest.NewLogger(t), map[string]Probe{
		"postgres": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			if redisDown.Load() {
				return errors.New("redis unreachable")
			}
			return nil
		},
	})
	ctx := context.Background()

	assert.Empty(t, s.ProbeOnce(ctx))
	assertStatus(t, s, "", healthpb.HealthCheckResponse_SERVING)
	assertStatus(t, s, "redis", healthpb.HealthCheckResponse_SERVING)

	redisDown.Store(true)
	assert.Equal(t, []string{"redis"}, s.ProbeOnce(ctx))
	assertStatus(t, s, "", healthpb.HealthCheckResponse_NOT_SERVING)
	assertStatus(t, s, "postgres", healthpb.HealthCheckResponse_SERVING)
	assertStatus(t, s, "redis", healthpb.HealthCheckResponse_NOT_SERVING)
}

func TestProbeOnce_TimesOut(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeTimeout = 10 * time.Millisecond
	s := NewServer(cfg, zaptest.NewLogger(t), map[string]Probe{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	assert.Equal(t, []string{"slow"}, s.ProbeOnce(context.Background()))
}

func assertStatus(t *testing.T, s *Server, service string, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	assert.Equal(t, want, resp.Status, "service %q", service)
}

func TestServer_ServesHealthOverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	s := NewServer(testConfig(), zaptest.NewLogger(t), map[string]Probe{
		"postgres": func(context.Context) error { return nil },
	}).WithListener(lis)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("health server did not stop")
	}
}
