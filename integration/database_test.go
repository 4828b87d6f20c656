//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHeadlampWithMySQL exercises the shared discovery cache against a real
// MySQL server: migrate the schema, check status, then clear it through the
// CLI end to end.
func TestHeadlampWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "headlamp",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/headlamp?parseTime=true", host, port.Port())

	_ = os.Setenv("HEADLAMP_CACHE_BACKEND", "mysql")
	_ = os.Setenv("HEADLAMP_CACHE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("HEADLAMP_CACHE_BACKEND") }()
	defer func() { _ = os.Unsetenv("HEADLAMP_CACHE_DB_CONNECT") }()

	require.NoError(t, runHeadlampCommand(t, "cache", "migrate"))
	require.NoError(t, runHeadlampCommand(t, "cache", "status"))
	require.NoError(t, runHeadlampCommand(t, "cache", "clear"))
}

// TestHeadlampWithPostgres mirrors TestHeadlampWithMySQL against PostgreSQL.
func TestHeadlampWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	_ = os.Setenv("HEADLAMP_CACHE_BACKEND", "postgresql")
	_ = os.Setenv("HEADLAMP_CACHE_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("HEADLAMP_CACHE_BACKEND") }()
	defer func() { _ = os.Unsetenv("HEADLAMP_CACHE_DB_CONNECT") }()

	require.NoError(t, runHeadlampCommand(t, "cache", "migrate"))
	require.NoError(t, runHeadlampCommand(t, "cache", "status"))
	require.NoError(t, runHeadlampCommand(t, "cache", "clear"))
}
