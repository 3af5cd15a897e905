package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/richieat/richieat/pkg/api"
	"github.com/richieat/richieat/pkg/storage"
)

func init() {
	// Configure testcontainers to use podman when docker is not configured.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	_, dockerErr := exec.LookPath("docker")
	_, podmanErr := exec.LookPath("podman")
	if dockerErr != nil && podmanErr != nil {
		t.Skip("no container runtime found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("richieat_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	}, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func makeTestAdvisor(email string) *api.Advisor {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &api.Advisor{
		ID:           api.NewID(),
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FirstName:    "Ada",
		LastName:     "Byron",
		Firm:         "Analytical Engines",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func makeTestClient(advisorID string, created time.Time) *api.Client {
	return &api.Client{
		ID:          api.NewID(),
		AdvisorID:   advisorID,
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       "grace@example.com",
		Status:      api.ClientStatusOnboarding,
		RiskProfile: api.RiskModerate,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestPostgres_CreateAndGetAdvisor(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	adv := makeTestAdvisor("Ada@Example.com")
	if err := store.CreateAdvisor(ctx, adv); err != nil {
		t.Fatalf("CreateAdvisor failed: %v", err)
	}

	got, err := store.GetAdvisorByEmail(ctx, "ada@example.COM")
	if err != nil {
		t.Fatalf("GetAdvisorByEmail failed: %v", err)
	}
	if got.ID != adv.ID {
		t.Errorf("ID = %q, want %q", got.ID, adv.ID)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized", got.Email)
	}
	if got.Firm != "Analytical Engines" {
		t.Errorf("Firm = %q", got.Firm)
	}
	if got.LastLoginAt != nil {
		t.Errorf("LastLoginAt = %v, want nil", got.LastLoginAt)
	}
}

func TestPostgres_DuplicateEmail(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	store.CreateAdvisor(ctx, makeTestAdvisor("dup@example.com"))

	err := store.CreateAdvisor(ctx, makeTestAdvisor("DUP@example.com"))
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestPostgres_GetAdvisorNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetAdvisor(context.Background(), api.NewID())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_TouchLastLogin(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	adv := makeTestAdvisor("touch@example.com")
	store.CreateAdvisor(ctx, adv)

	at := time.Now().UTC().Truncate(time.Microsecond)
	if err := store.TouchLastLogin(ctx, adv.ID, at); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}
	got, _ := store.GetAdvisor(ctx, adv.ID)
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func TestPostgres_ClientLifecycle(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	adv := makeTestAdvisor("owner@example.com")
	other := makeTestAdvisor("other@example.com")
	store.CreateAdvisor(ctx, adv)
	store.CreateAdvisor(ctx, other)

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := makeTestClient(adv.ID, base)
	second := makeTestClient(adv.ID, base.Add(time.Minute))
	second.Status = api.ClientStatusActive
	for _, c := range []*api.Client{first, second} {
		if err := store.CreateClient(ctx, c); err != nil {
			t.Fatalf("CreateClient failed: %v", err)
		}
	}

	list, err := store.ListClients(ctx, adv.ID, storage.ClientFilter{})
	if err != nil {
		t.Fatalf("ListClients failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("ListClients order wrong: %v", list)
	}

	active, _ := store.ListClients(ctx, adv.ID, storage.ClientFilter{Status: api.ClientStatusActive})
	if len(active) != 1 || active[0].ID != second.ID {
		t.Errorf("status filter returned %v", active)
	}

	if _, err := store.GetClient(ctx, other.ID, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-advisor GetClient = %v, want ErrNotFound", err)
	}

	first.Notes = "prefers email"
	first.UpdatedAt = base.Add(time.Hour)
	if err := store.UpdateClient(ctx, first); err != nil {
		t.Fatalf("UpdateClient failed: %v", err)
	}
	got, _ := store.GetClient(ctx, adv.ID, first.ID)
	if got.Notes != "prefers email" {
		t.Errorf("Notes = %q", got.Notes)
	}
	if got.RiskProfile != api.RiskModerate {
		t.Errorf("RiskProfile = %q", got.RiskProfile)
	}

	if err := store.DeleteClient(ctx, other.ID, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-advisor DeleteClient = %v, want ErrNotFound", err)
	}
	if err := store.DeleteClient(ctx, adv.ID, first.ID); err != nil {
		t.Fatalf("DeleteClient failed: %v", err)
	}
	if _, err := store.GetClient(ctx, adv.ID, first.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
	if !store.Connected() {
		t.Error("Connected() = false after successful health check")
	}
}

func TestPostgres_MigrationsIdempotent(t *testing.T) {
	store := setupTestDB(t)
	if err := store.migrate(context.Background()); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}

	var applied int
	err := store.pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM goose_db_version WHERE version_id > 0 AND is_applied",
	).Scan(&applied)
	if err != nil {
		t.Fatalf("reading goose_db_version: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied migrations = %d, want 2", applied)
	}
}

func TestConnect_InvalidDSNFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, Config{DSN: "://not a dsn"}, nil)
	if err == nil || !strings.Contains(err.Error(), "parsing DSN") {
		t.Fatalf("Connect() error = %v, want DSN parse error", err)
	}
}

func TestConnect_RetriesUntilContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Nothing listens on port 1.
	_, err := Connect(ctx, Config{
		DSN:        "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1",
		RetryDelay: 50 * time.Millisecond,
	}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Connect() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestMigrationSources(t *testing.T) {
	// pgxpool.New does not dial, so no server is needed to list sources.
	pool, err := pgxpool.New(context.Background(), "postgres://u:p@127.0.0.1:1/db?sslmode=disable")
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	store := &Store{pool: pool}
	provider, closeDB, err := store.newMigrationProvider()
	if err != nil {
		t.Fatalf("newMigrationProvider: %v", err)
	}
	defer closeDB()

	sources := provider.ListSources()
	if len(sources) != 2 {
		t.Fatalf("found %d migrations, want 2", len(sources))
	}
	for i, src := range sources {
		if src.Version != int64(i+1) {
			t.Errorf("source %d has version %d, want %d", i, src.Version, i+1)
		}
	}
}
