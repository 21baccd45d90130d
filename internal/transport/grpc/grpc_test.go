package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/session"
	"github.com/hasti-ptl/Krishisahayk/internal/transport"
)

type idleService struct{ transport.Service }

func (idleService) Snapshot() session.Snapshot {
	return session.Snapshot{State: session.Idle, Language: "hi-IN"}
}

func TestHealthService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis := bufconn.Listen(1 << 20)
	tr := New(config.GRPCConfig{}, nil)
	done := make(chan error, 1)
	go func() { done <- tr.Serve(ctx, lis, idleService{}) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return 0, err
		}
		return resp.GetStatus(), nil
	}

	require.Eventually(t, func() bool {
		s, err := check(ServiceName)
		return err == nil && s == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	tr.SetServing(false)
	s, err := check("")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s)

	_, err = check("unknown.Service")
	assert.Equal(t, codes.NotFound, status.Code(err))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	tr := New(config.GRPCConfig{Port: 50051}, nil)
	assert.Equal(t, "grpc", tr.Name())
	assert.Nil(t, tr.Addr())
	assert.NoError(t, tr.Close())
}
