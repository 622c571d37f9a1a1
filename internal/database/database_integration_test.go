package database_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobflow/jobflow-backend/internal/chat"
	"github.com/jobflow/jobflow-backend/internal/config"
	"github.com/jobflow/jobflow-backend/internal/database"
	"github.com/jobflow/jobflow-backend/internal/user"
)

// Set JOBFLOW_INTEGRATION=1 with a reachable docker daemon to run.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("JOBFLOW_INTEGRATION") != "1" {
		t.Skip("JOBFLOW_INTEGRATION not set")
	}

	ctx := t.Context()
	log := zaptest.NewLogger(t).Sugar()
	cfg := setupPostgres(t)

	var db *database.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Open(ctx, cfg, log)
		return err == nil
	}, 60*time.Second, time.Second)
	t.Cleanup(db.Close)

	migrateCtx, cancel := context.WithTimeout(ctx, cfg.MigrateTimeout)
	defer cancel()
	require.NoError(t, database.Migrate(migrateCtx, db.SQL, log))
	// second run is a no-op
	require.NoError(t, database.Migrate(migrateCtx, db.SQL, log))

	users := user.NewPostgresRepository(db.SQL)
	alice, err := users.Create(ctx, user.User{
		Email: "alice@example.com", Password: "x", FirstName: "Alice", LastName: "Berg",
		Role: user.RoleManager, ContractType: user.ContractFixed, WeeklyHours: 40, Active: true,
	})
	require.NoError(t, err)
	bob, err := users.Create(ctx, user.User{
		Email: "bob@example.com", Password: "x", FirstName: "Bob", LastName: "Lind",
		Role: user.RoleEmployee, ContractType: user.ContractFlex, WeeklyHours: 20, Active: true,
	})
	require.NoError(t, err)

	_, err = users.Create(ctx, user.User{Email: "alice@example.com", Role: user.RoleEmployee, ContractType: user.ContractFixed})
	require.ErrorIs(t, err, user.ErrEmailExists)

	messages := chat.NewPostgresRepository(db.SQL)
	room := chat.DirectRoom(bob.ID, alice.ID)
	base := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second", "third"} {
		recipient := bob.ID
		require.NoError(t, messages.Save(ctx, chat.Message{
			ID: uuid.NewString(), Room: room, SenderID: alice.ID, RecipientID: &recipient,
			Body: body, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := messages.History(ctx, room, base.Add(time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "second", history[0].Body)
	require.Equal(t, "third", history[1].Body)
	require.Equal(t, bob.ID, *history[1].RecipientID)
}

func setupPostgres(t *testing.T) config.PostgresConfig {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=jobflow",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	port, err := strconv.Atoi(resource.GetPort("5432/tcp"))
	require.NoError(t, err)

	return config.PostgresConfig{
		Host:           "localhost",
		Port:           port,
		User:           "postgres",
		Password:       "postgres",
		DBName:         "jobflow",
		SSLMode:        "disable",
		QueryTimeout:   5 * time.Second,
		MigrateTimeout: 30 * time.Second,
		MaxConns:       4,
		MinConns:       1,
	}
}
