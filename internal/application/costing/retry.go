package costing

import (
	"context"
	"errors"
	"time"

	"github.com/erp/costing/internal/domain/shared"
	"go.uber.org/zap"
)

// executeWithRetry runs fn in a transaction and reruns it while it fails
// with a concurrency conflict, up to cfg.MaxRetries extra attempts.
// fn must reset any state it captures from a previous attempt.
func (s *Service) executeWithRetry(ctx context.Context, op string, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.txScope.Execute(ctx, fn)
		if err == nil || !shared.IsConcurrencyConflict(err) || attempt >= s.cfg.MaxRetries {
			break
		}

		wait := s.cfg.RetryBackoff * time.Duration(attempt+1)
		s.logger.Warn("concurrency conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if wait <= 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, shared.ErrAlreadyExists)
}

// isBusinessRejection reports errors caused by the request rather than the system
func isBusinessRejection(err error) bool {
	return errors.Is(err, shared.ErrInsufficientStock) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrAlreadyExists) ||
		errors.Is(err, shared.ErrInvalidState) ||
		errors.Is(err, shared.ErrConcurrencyConflict)
}
