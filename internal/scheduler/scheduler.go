package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/internal/service"
	"github.com/Zohair23/price-comparison-engine/pkg/config"
)

// Scheduler runs the periodic alert sweep
type Scheduler struct {
	cron   *cron.Cron
	alerts *service.AlertService
	log    *zap.Logger
}

// New creates the scheduler with the configured sweep spec
func New(cfg *config.SchedulerConfig, alerts *service.AlertService, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		alerts: alerts,
		log:    log,
	}

	if _, err := s.cron.AddFunc(cfg.AlertCheckSpec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop and blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info("Alert scheduler started")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("Alert scheduler stopped")
}

func (s *Scheduler) sweep() {
	triggered, err := s.alerts.Check(context.Background())
	if err != nil {
		s.log.Warn("Alert sweep failed", zap.Error(err))
		return
	}
	if len(triggered) > 0 {
		s.log.Info("Alert sweep completed", zap.Int("triggered", len(triggered)))
	}
}
