//go:build integration

package drivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/db/dbtest"
	"github.com/parceltrack/backend/internal/domain"
)

func createDriver(t *testing.T, repo *Repo) *Driver {
	t.Helper()
	d := &Driver{
		ID:            uuid.New(),
		UserID:        "user-" + uuid.NewString(),
		Name:          "Dave",
		VehicleType:   "van",
		LicenseNumber: "L-1",
		Status:        domain.DriverAvailable,
	}
	require.NoError(t, repo.Create(context.Background(), d))
	return d
}

func TestRepoSetStatusIf(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(dbtest.Open(t))
	d := createDriver(t, repo)

	ok, err := repo.SetStatusIf(ctx, d.ID, domain.DriverBusy, domain.DriverAvailable)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SetStatusIf(ctx, d.ID, domain.DriverAvailable, domain.DriverBusy)
	require.NoError(t, err)
	assert.True(t, ok)

	dup := *d
	dup.ID = uuid.New()
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrAlreadyRegistered)
}

func TestRepoLockForUpdateBlocksStatusWrite(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Open(t)
	repo := NewRepo(pool)
	d := createDriver(t, repo)

	assert.ErrorIs(t, repo.LockForUpdate(ctx, uuid.New()), ErrNotFound)

	written := make(chan time.Time, 1)
	var released time.Time
	err := db.NewTxRunner(pool).InTx(ctx, func(ctx context.Context) error {
		if err := repo.LockForUpdate(ctx, d.ID); err != nil {
			return err
		}
		go func() {
			_, _ = repo.SetStatusIf(context.Background(), d.ID, domain.DriverAvailable, domain.DriverOffline)
			written <- time.Now()
		}()
		time.Sleep(200 * time.Millisecond)
		released = time.Now()
		return nil
	})
	require.NoError(t, err)

	select {
	case at := <-written:
		assert.False(t, at.Before(released), "status write must wait for the row lock")
	case <-time.After(5 * time.Second):
		t.Fatal("status write never finished")
	}
}

func TestRepoMarkOffline(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(dbtest.Open(t))
	stale, fresh, busy := createDriver(t, repo), createDriver(t, repo), createDriver(t, repo)

	now := time.Now()
	require.NoError(t, repo.TouchOnline(ctx, stale.ID, now.Add(-time.Hour)))
	require.NoError(t, repo.TouchOnline(ctx, fresh.ID, now))
	require.NoError(t, repo.TouchOnline(ctx, busy.ID, now.Add(-time.Hour)))
	_, err := repo.SetStatusIf(ctx, busy.ID, domain.DriverAvailable, domain.DriverBusy)
	require.NoError(t, err)

	ids, err := repo.MarkOffline(ctx, now.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Contains(t, ids, stale.ID)
	assert.NotContains(t, ids, fresh.ID)
	assert.NotContains(t, ids, busy.ID)

	err = repo.TouchOnline(ctx, uuid.New(), now)
	assert.True(t, errors.Is(err, ErrNotFound))
}
