// Package testhelpers starts shared Docker containers for integration tests.
// Tests using it are skipped in -short mode and when Docker is not available.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	RedisImage    = "redis:7-alpine"
	MongoImage    = "mongo:7"
	PostgresImage = "postgres:16-alpine"
)

type shared struct {
	once sync.Once
	url  string
	err  error
}

var (
	redisContainer    shared
	mongoContainer    shared
	postgresContainer shared
)

// RedisURL returns the URL of a shared Redis container.
func RedisURL(t *testing.T) string {
	t.Helper()
	return start(t, &redisContainer, testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379", "redis://%s:%s/0")
}

// MongoURL returns the URL of a shared MongoDB container.
func MongoURL(t *testing.T) string {
	t.Helper()
	return start(t, &mongoContainer, testcontainers.ContainerRequest{
		Image:        MongoImage,
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}, "27017", "mongodb://%s:%s")
}

// PostgresURL returns the URL of a shared PostgreSQL container.
func PostgresURL(t *testing.T) string {
	t.Helper()
	return start(t, &postgresContainer, testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "tenant_test",
			"POSTGRES_USER":     "tenancy",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432", "postgres://tenancy:test_password@%s:%s/tenant_test?sslmode=disable")
}

func start(t *testing.T, s *shared, req testcontainers.ContainerRequest, port nat.Port, format string) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	s.once.Do(func() {
		s.url, s.err = run(context.Background(), req, port, format)
	})
	if s.err != nil {
		t.Skipf("Skipping integration test, container unavailable: %v", s.err)
	}
	return s.url
}

func run(ctx context.Context, req testcontainers.ContainerRequest, port nat.Port, format string) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}

	return fmt.Sprintf(format, host, mapped.Port()), nil
}
