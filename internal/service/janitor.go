package service

import (
	"context"
	"time"
)

// RunRecoveryJanitor clears recovery tokens older than the TTL every
// interval, so expired secrets do not linger in the store. It blocks until
// ctx is cancelled; launch it in its own goroutine.
func (s *Service) RunRecoveryJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Recovery janitor started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Recovery janitor stopped")
			return
		case <-ticker.C:
			s.purgeExpiredRecovery(ctx)
		}
	}
}

func (s *Service) purgeExpiredRecovery(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.RecoveryTTL)
	n, err := s.lists.ExpireRecovery(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge expired recovery tokens")
		return
	}
	if n > 0 {
		s.logger.WithField("lists", n).Info("Purged expired recovery tokens")
	}
}
