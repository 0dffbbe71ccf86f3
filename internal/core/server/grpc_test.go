package server

import (
	"context"
	"testing"
	"time"

	"github.com/solatis/pactkeeper/internal/core/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestControlServer_Health(t *testing.T) {
	cfg := *config.DefaultMockProviderConfig()
	cfg.ShutdownTimeout = 5 * time.Second

	srv := NewControlServer(cfg)
	addr, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v, want nil", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) error = %v, want nil", service, err)
		}
		return resp.GetStatus()
	}

	tests := []struct {
		name    string
		serving *bool
		want    grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{"initially not serving", nil, grpc_health_v1.HealthCheckResponse_NOT_SERVING},
		{"serving", ptr(true), grpc_health_v1.HealthCheckResponse_SERVING},
		{"back to not serving", ptr(false), grpc_health_v1.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.serving != nil {
				srv.SetServing(*tt.serving)
			}
			for _, service := range []string{"", MockServerService} {
				if got := check(service); got != tt.want {
					t.Errorf("Check(%q) = %v, want %v", service, got, tt.want)
				}
			}
		})
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v, want nil", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start() error = %v, want nil after shutdown", err)
	}
}

func ptr[T any](v T) *T { return &v }
