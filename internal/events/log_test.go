package events

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceltrack/backend/internal/domain"
)

func TestAppendAndListOrdered(t *testing.T) {
	ctx := context.Background()
	log := NewLog(NewMemoryStore())
	id := uuid.New()

	_, err := log.Append(ctx, id, domain.EventCreated, "created")
	require.NoError(t, err)
	_, err = log.Append(ctx, id, domain.EventAssigned, "assigned")
	require.NoError(t, err)
	_, err = log.Append(ctx, uuid.New(), domain.EventCreated, "other shipment")
	require.NoError(t, err)

	list, err := log.ListForShipment(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.EventCreated, list[0].Type)
	assert.Equal(t, domain.EventAssigned, list[1].Type)
	assert.True(t, list[0].OccurredAt.Before(list[1].OccurredAt))
	assert.Less(t, list[0].ID, list[1].ID)
}

func TestAppendIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	log := NewLog(NewMemoryStore())
	id := uuid.New()

	a, err := log.Append(ctx, id, domain.EventStatusChanged, "assigned -> in_transit")
	require.NoError(t, err)
	b, err := log.Append(ctx, id, domain.EventStatusChanged, "assigned -> in_transit")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := log.ListForShipment(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConcurrentAppendsKeepOrder(t *testing.T) {
	ctx := context.Background()
	log := NewLog(NewMemoryStore())
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.Append(ctx, id, domain.EventPackageStatus, "tick")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := log.ListForShipment(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 100)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].OccurredAt.Before(list[i].OccurredAt))
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestListUnknownShipmentIsEmpty(t *testing.T) {
	list, err := NewLog(NewMemoryStore()).ListForShipment(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)
}
