package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
)

func TestRunOnceMarksIdleDriversOffline(t *testing.T) {
	ctx := context.Background()
	svc := drivers.NewService(drivers.NewMemoryStore(), zap.NewNop())
	d, err := svc.Register(ctx, "u1", drivers.Registration{Name: "D", VehicleType: "van", LicenseNumber: "L"})
	require.NoError(t, err)

	s := NewSweeper(svc, 15*time.Minute, zap.NewNop())
	assert.Equal(t, 0, s.RunOnce(ctx))

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, s.RunOnce(ctx))

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverOffline, got.Status)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(drivers.NewService(drivers.NewMemoryStore(), zap.NewNop()), time.Minute, zap.NewNop())
	assert.Error(t, s.Start("not a schedule"))
	require.NoError(t, s.Start("@every 1h"))
	s.Stop()
}
