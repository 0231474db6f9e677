//go:build integration

package integration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bookingcore/internal/infra/db"
	"bookingcore/internal/infra/events"
	"bookingcore/internal/infra/uow"
	"bookingcore/internal/pkg/clock"
	"bookingcore/internal/pkg/config"
	"bookingcore/internal/usecase/commands"
	"bookingcore/internal/usecase/shared"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresContainerOnce sync.Once
	postgresTestContainer testcontainers.Container

	testUser     = "test"
	testPassword = "testpass"
)

type testEnv struct {
	pool       *pgxpool.Pool
	uow        shared.UnitOfWork
	bookings   *commands.BookingUsecase
	settlement *commands.SettlementUsecase
	provider   *stubProvider
}

// stubProvider stands in for the payment gateway so settlement flows can run
// end to end against a real database.
type stubProvider struct {
	refundErr error
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, in commands.CheckoutParams) (*commands.CheckoutSession, error) {
	return &commands.CheckoutSession{SessionID: "link_" + in.IdempotencyKey, CheckoutURL: "https://pay.test/" + in.IdempotencyKey}, nil
}

func (p *stubProvider) CreateConnectCheckoutSession(ctx context.Context, in commands.CheckoutParams) (*commands.CheckoutSession, error) {
	return p.CreateCheckoutSession(ctx, in)
}

func (p *stubProvider) Refund(_ context.Context, in commands.RefundParams) (*commands.RefundResult, error) {
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &commands.RefundResult{RefundID: "rfnd_" + in.IdempotencyKey, RefundedCents: in.AmountCents}, nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	info := startPostgres(t)
	pool, cfg := prepareDatabase(t, info)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	unitOfWork := uow.NewPostgresUoW(pool, cfg)
	provider := &stubProvider{}
	emitter := events.NewLogEmitter(logger)
	clk := clock.NewRealClock()

	return &testEnv{
		pool:       pool,
		uow:        unitOfWork,
		bookings:   commands.NewBookingUsecase(unitOfWork, emitter, clk),
		settlement: commands.NewSettlementUsecase(unitOfWork, provider, emitter, clk),
		provider:   provider,
	}
}

func startPostgres(t *testing.T) nat.PortBinding {
	t.Helper()

	postgresContainerOnce.Do(func() {
		req := testcontainers.ContainerRequest{
			Image:        "postgres:17",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testPassword,
				"POSTGRES_DB":       "postgres",
			},
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,size=512m",
			},
			Cmd: []string{
				"postgres",
				"-c", "fsync=off",
				"-c", "full_page_writes=off",
				"-c", "synchronous_commit=off",
				"-c", "max_connections=200",
			},
			WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable",
					testUser, testPassword, host, port.Port())
			}).WithStartupTimeout(60 * time.Second),
			Labels: map[string]string{"purpose": "integration-tests"},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
		defer cancel()

		var err error
		postgresTestContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		require.NoError(t, err, "failed to start the postgres container")
	})

	ctx := context.Background()
	mappedPort, err := postgresTestContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	host, err := postgresTestContainer.Host(ctx)
	require.NoError(t, err)

	return nat.PortBinding{HostIP: host, HostPort: mappedPort.Port()}
}

// prepareDatabase creates a database per test so parallel packages never see
// each other's rows, then applies the schema.
func prepareDatabase(t *testing.T, info nat.PortBinding) (*pgxpool.Pool, config.Config) {
	t.Helper()

	dbName := "testdb_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	adminDSN := fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable",
		testUser, testPassword, info.HostIP, info.HostPort)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminPool, err := pgxpool.New(ctx, adminDSN)
	require.NoError(t, err, "admin connection failed")
	defer adminPool.Close()

	_, err = adminPool.Exec(ctx, "CREATE DATABASE "+dbName)
	require.NoError(t, err, "failed to create the test database")

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()

		cleanupPool, err := pgxpool.New(cleanupCtx, adminDSN)
		if err != nil {
			return
		}
		defer cleanupPool.Close()
		_, _ = cleanupPool.Exec(cleanupCtx, "DROP DATABASE IF EXISTS "+dbName+" WITH (FORCE)")
	})

	cfg := config.NewTestConfig()
	cfg.DB = config.DBConfig{
		Host:     info.HostIP,
		Port:     info.HostPort,
		User:     testUser,
		Password: testPassword,
		DBName:   dbName,
		SSLMode:  "disable",
	}

	pool, closePool, err := db.Connect(cfg.DB)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(closePool)

	applySchema(t, pool)
	return pool, cfg
}

func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	candidates := []string{
		filepath.Join("db", "migrations", "0001_init.sql"),
		filepath.Join("..", "db", "migrations", "0001_init.sql"),
		filepath.Join("..", "..", "db", "migrations", "0001_init.sql"),
	}

	var (
		schema  []byte
		readErr error
	)
	for _, cand := range candidates {
		schema, readErr = os.ReadFile(cand)
		if readErr == nil {
			break
		}
	}
	require.NoError(t, readErr, "failed to read the schema file")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_, err := pool.Exec(ctx, string(schema))
	require.NoError(t, err, "failed to apply the schema")
}

func createTenant(t *testing.T, pool *pgxpool.Pool, depositPercent *int32, commissionPercent int32) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO tenants (id, name, deposit_percent, commission_percent) VALUES ($1, $2, $3, $4)",
		id, "Tenant "+id.String()[:8], depositPercent, commissionPercent)
	require.NoError(t, err)
	return id
}

func createService(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, priceCents int64, maxPerDay *int32) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO services (id, tenant_id, name, duration_minutes, price_cents, max_per_day) VALUES ($1, $2, $3, 60, $4, $5)",
		id, tenantID, "Service "+id.String()[:8], priceCents, maxPerDay)
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()

	var n int64
	err := pool.QueryRow(context.Background(), query, args...).Scan(&n)
	require.NoError(t, err)
	return n
}
