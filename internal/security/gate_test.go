package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
)

func TestIssueAndParse(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, err := m.Issue("user-1", "admin")
	require.NoError(t, err)

	uid, role, err := m.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.Equal(t, "admin", role)
}

func TestParseRejectsBadTokens(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	other, err := NewJWTManager("other", time.Hour).Issue("user-1", "")
	require.NoError(t, err)
	_, _, err = m.ParseAccess(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewJWTManager("secret", -time.Minute).Issue("user-1", "")
	require.NoError(t, err)
	_, _, err = m.ParseAccess(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, _, err = m.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseFallsBackToSubject(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "firebase-uid",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	uid, role, err := m.ParseAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", uid)
	assert.Empty(t, role)
}

func TestGateResolvesRoles(t *testing.T) {
	ctx := context.Background()
	m := NewJWTManager("secret", time.Hour)
	drv := drivers.NewService(drivers.NewMemoryStore(), zap.NewNop())
	gate := NewGate(m, drv)

	d, err := drv.Register(ctx, "driver-user", drivers.Registration{Name: "D", VehicleType: "van", LicenseNumber: "L"})
	require.NoError(t, err)

	cases := []struct {
		user, claimed string
		role          domain.Role
		isDriver      bool
	}{
		{"customer-user", "", domain.RoleCustomer, false},
		{"customer-user", "driver", domain.RoleCustomer, false},
		{"driver-user", "", domain.RoleDriver, true},
		{"driver-user", "admin", domain.RoleAdmin, true},
		{"boss", "admin", domain.RoleAdmin, false},
	}
	for _, tc := range cases {
		tok, err := m.Issue(tc.user, tc.claimed)
		require.NoError(t, err)
		c, err := gate.Resolve(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, tc.user, c.UserID)
		assert.Equal(t, tc.role, c.Role, tc.user+"/"+tc.claimed)
		assert.Equal(t, tc.isDriver, c.IsDriver())
		if tc.isDriver {
			assert.Equal(t, d.ID, *c.DriverID)
		}
	}

	_, err = gate.Resolve(ctx, "garbage")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
