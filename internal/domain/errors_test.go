package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := Conflict("shipment %s already claimed", "abc")
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "shipment abc already claimed", err.Error())

	wrapped := fmt.Errorf("claim: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestKindOfInfrastructureError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("connection refused")))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition(StatusPending, StatusDelivered)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "pending")
	assert.Contains(t, err.Error(), "delivered")
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusExceptions.Terminal())
	assert.False(t, StatusInTransit.Terminal())
	assert.True(t, StatusAssigned.Active())
	assert.False(t, StatusPending.Active())
	assert.False(t, ShipmentStatus("lost").Valid())
	assert.True(t, PackageOutForDelivery.Valid())
	assert.False(t, DriverStatus("sleeping").Valid())
}
