//go:build integration

package location

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceltrack/backend/internal/db/dbtest"
	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
)

func TestRepoLatestOverwrites(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Open(t)
	d := &drivers.Driver{
		ID: uuid.New(), UserID: "user-" + uuid.NewString(),
		Name: "Dave", VehicleType: "van", LicenseNumber: "L-1", Status: domain.DriverAvailable,
	}
	require.NoError(t, drivers.NewRepo(pool).Create(ctx, d))
	repo := NewRepo(pool)

	_, err := repo.Latest(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNoSample)

	acc := 5.0
	first := time.Now().Add(-time.Minute).UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Put(ctx, Sample{DriverID: d.ID, Latitude: 41.3, Longitude: 69.2, Accuracy: &acc, Timestamp: first}))
	second := first.Add(30 * time.Second)
	require.NoError(t, repo.Put(ctx, Sample{DriverID: d.ID, Latitude: 41.31, Longitude: 69.24, Timestamp: second}))

	got, err := repo.Latest(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 41.31, got.Latitude)
	assert.Equal(t, 69.24, got.Longitude)
	assert.Nil(t, got.Accuracy)
	assert.True(t, got.Timestamp.Equal(second))
}
