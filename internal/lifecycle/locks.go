package lifecycle

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

const lockStripes = 64

// stripedLock serializes mutate+append+publish per shipment within the
// process, so notifications for one shipment leave in commit order.
type stripedLock struct {
	mu [lockStripes]sync.Mutex
}

func (l *stripedLock) lock(id uuid.UUID) func() {
	m := &l.mu[binary.BigEndian.Uint64(id[8:])%lockStripes]
	m.Lock()
	return m.Unlock
}
