//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/pgate/internal/database"
	"github.com/koustreak/pgate/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testUser     = "pgate"
	testPassword = "pgate"
	testDB       = "pgate"
)

func startPostgres(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithUsername(testUser),
		tcpostgres.WithPassword(testPassword),
		tcpostgres.WithDatabase(testDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctr.Terminate(context.Background()) //nolint:errcheck
	})

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return host, port.Int()
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	host, port := startPostgres(t)
	ctx := context.Background()
	gw := database.NewGateway(New(), nil)

	var notes []database.Notification
	cfg := database.Resolve(database.PartialConfig{
		Host:     database.Ptr(host),
		Port:     database.Ptr(port),
		Username: database.Ptr(testUser),
		Password: database.Ptr(testPassword),
		Database: database.Ptr(testDB),
		Notify:   func(n database.Notification) { notes = append(notes, n) },
	})

	h, err := gw.Connect(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, database.StateOpen, h.State())

	conn := h.Raw().(*pgx.Conn)
	_, err = conn.Exec(ctx, "LISTEN jobs")
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "NOTIFY jobs, 'ready'")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "ready", notes[0].Payload)

	gw.Close(ctx, h)
	assert.Equal(t, database.StateClosed, h.State())
	assert.True(t, conn.IsClosed())
}

func TestIntegration_BadPassword(t *testing.T) {
	host, port := startPostgres(t)
	gw := database.NewGateway(New(), nil)

	cfg := database.Resolve(database.PartialConfig{
		Host:     database.Ptr(host),
		Port:     database.Ptr(port),
		Username: database.Ptr(testUser),
		Password: database.Ptr("wrong"),
		Database: database.Ptr(testDB),
	})

	h, err := gw.Connect(context.Background(), cfg)
	assert.Nil(t, h)

	var connErr *errs.Error
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, errs.SeverityError, connErr.Severity)
	assert.Equal(t, "28P01", connErr.Code)
	assert.Equal(t, "Invalid password", connErr.Description)
}

func TestIntegration_UnknownDatabase(t *testing.T) {
	host, port := startPostgres(t)
	gw := database.NewGateway(New(), nil)

	cfg := database.Resolve(database.PartialConfig{
		Host:     database.Ptr(host),
		Port:     database.Ptr(port),
		Username: database.Ptr(testUser),
		Password: database.Ptr(testPassword),
		Database: database.Ptr("missing"),
	})

	_, err := gw.Connect(context.Background(), cfg)
	assert.Equal(t, "3D000", errs.CodeOf(err))
}
