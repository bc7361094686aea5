package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/persistence"
)

// newTestPool connects to POSTGRES_TEST_DSN, applies migrations and empties
// the submissions table. Tests are skipped when the variable is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, "TRUNCATE submissions")
	require.NoError(t, err)
	return pool
}

func TestPostgresCreateRejectsDuplicate(t *testing.T) {
	repo := NewPostgresSubmissionRepository(newTestPool(t))
	ctx := context.Background()

	sub := &domain.Submission{
		Kind:      domain.KindPartnership,
		Email:     "org@corp.com",
		RequestID: "req-1",
		Status:    domain.SubmissionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, sub))

	again := *sub
	again.RequestID = "req-2"
	assert.ErrorIs(t, repo.Create(ctx, &again), ErrDuplicate)

	ok, err := repo.Exists(ctx, domain.KindPartnership, "org@corp.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, domain.KindWaitlist, "org@corp.com")
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := repo.List(ctx, SubmissionFilter{Kind: domain.KindPartnership})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "req-1", items[0].RequestID)
}

func TestPostgresConcurrentCreateWritesOnce(t *testing.T) {
	repo := NewPostgresSubmissionRepository(newTestPool(t))
	ctx := context.Background()

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &domain.Submission{Kind: domain.KindWaitlist, Email: "race@b.co", CreatedAt: time.Now().UTC()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, ErrDuplicate):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 9, duplicates)
}
