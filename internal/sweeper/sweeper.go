package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Expirer сохраняет истечение просроченных запросов и предложений.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (requests int64, offers int64, err error)
}

// Sweeper периодически переводит просроченные записи в expired.
// Чтение и без него возвращает верный статус, sweep лишь сохраняет его в базе.
type Sweeper struct {
	Expirer  Expirer
	Interval time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewSweeper создает новый экземпляр Sweeper.
func NewSweeper(expirer Expirer, interval, timeout time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		Expirer:  expirer,
		Interval: interval,
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Run выполняет sweep сразу и далее каждые Interval, пока не отменен ctx.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep выполняет один проход. Ошибка пишется в лог, следующий проход повторит работу.
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	requests, offers, err := s.Expirer.ExpireOverdue(ctx)
	if err != nil {
		s.Logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if requests > 0 || offers > 0 {
		s.Logger.Info("expiry sweep", zap.Int64("requests_expired", requests), zap.Int64("offers_expired", offers))
	}
}
