package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// GetRedisAddress returns the host:port of a shared Testcontainers Redis
// instance. REQFLOW_REDIS_ADDR, when set, points the tests at an existing
// server instead. If the container cannot be started (e.g. Docker not available),
// tests are skipped.
func GetRedisAddress(t *testing.T) string {
	t.Helper()

	if v := os.Getenv("REQFLOW_REDIS_ADDR"); v != "" {
		return v
	}

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedisContainer()
	})

	if redisErr != nil {
		t.Skipf("skipping Redis tests: %v", redisErr)
	}
	return redisAddr
}

func startRedisContainer() (addr string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Testcontainers panics when no Docker host can be found.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting Redis testcontainer panicked: %v", r)
		}
	}()

	redisC, err := testcontainers.Run(
		ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start Redis testcontainer: %w", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		_ = redisC.Terminate(context.Background())
		return "", fmt.Errorf("failed to get Redis container host: %w", err)
	}

	port, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = redisC.Terminate(context.Background())
		return "", fmt.Errorf("failed to get Redis container mapped port: %w", err)
	}

	if host == "" || host == "localhost" || host == "::1" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}
