package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SlotExpirer deactivates availability that has already ended.
type SlotExpirer interface {
	ExpirePastSlots(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	expirer  SlotExpirer
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(expirer SlotExpirer, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("slot_expiry_interval", s.interval))

	s.done.Add(1)
	go s.runSlotExpiryTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.done.Wait()
}

func (s *Scheduler) runSlotExpiryTask(ctx context.Context) {
	defer s.done.Done()

	// Первый запуск сразу при старте
	s.expireSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot expiry task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot expiry task cancelled")
			return
		}
	}
}

func (s *Scheduler) expireSlots(ctx context.Context) {
	n, err := s.expirer.ExpirePastSlots(ctx)
	if err != nil {
		s.logger.Error("Failed to expire past slots", zap.Error(err))
		return
	}
	s.logger.Debug("Slot expiry completed", zap.Int64("deactivated", n))
}
