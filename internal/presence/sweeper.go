// Фоновый перевод неактивных водителей в offline по cron-расписанию.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type DriverSweeper interface {
	SweepOffline(ctx context.Context, now time.Time, after time.Duration) ([]uuid.UUID, error)
}

type Sweeper struct {
	drivers DriverSweeper
	after   time.Duration
	timeout time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
	now     func() time.Time
}

func NewSweeper(drivers DriverSweeper, after time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		drivers: drivers,
		after:   after,
		timeout: 30 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
}

// Start регистрирует задачу по schedule (стандартный cron или @every 1m).
func (s *Sweeper) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("presence schedule %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("presence sweeper started", zap.String("schedule", schedule), zap.Duration("offline_after", s.after))
	return nil
}

// Stop ждёт завершения текущего прогона.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce — один прогон; возвращает число переведённых водителей.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ids, err := s.drivers.SweepOffline(ctx, s.now(), s.after)
	if err != nil {
		s.logger.Error("presence sweep failed", zap.Error(err))
		return 0
	}
	if len(ids) > 0 {
		s.logger.Info("drivers marked offline", zap.Int("count", len(ids)))
	}
	return len(ids)
}
