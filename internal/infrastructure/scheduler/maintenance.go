package scheduler

import (
	"context"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	JobCleanupEmptyBatches = "cleanup_empty_batches"
	JobExpiryScan          = "expiring_batch_scan"
)

// BatchMaintainer is the part of the costing service the maintenance jobs drive
type BatchMaintainer interface {
	CleanupEmptyBatches(ctx context.Context, warehouseID *uuid.UUID) (int64, error)
	ListExpiringBatches(ctx context.Context, within time.Duration, warehouseID *uuid.UUID) ([]appcosting.BatchResponse, error)
}

// NewCleanupJob deactivates exhausted batches across all warehouses
func NewCleanupJob(svc BatchMaintainer) Job {
	return JobFunc{
		JobName: JobCleanupEmptyBatches,
		Fn: func(ctx context.Context) error {
			_, err := svc.CleanupEmptyBatches(ctx, nil)
			return err
		},
	}
}

// NewExpiryScanJob logs a warning for each batch expiring within the window
func NewExpiryScanJob(svc BatchMaintainer, within time.Duration, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return JobFunc{
		JobName: JobExpiryScan,
		Fn: func(ctx context.Context) error {
			batches, err := svc.ListExpiringBatches(ctx, within, nil)
			if err != nil {
				return err
			}
			for _, b := range batches {
				logger.Warn("Batch expiring soon",
					zap.Stringer("batch_id", b.ID),
					zap.String("batch_number", b.BatchNumber),
					zap.Stringer("warehouse_id", b.WarehouseID),
					zap.Stringer("product_id", b.ProductID),
					zap.String("remaining", b.RemainingQuantity.String()),
					zap.Timep("expiry_date", b.ExpiryDate),
				)
			}
			logger.Info("Expiring batch scan finished",
				zap.Int("expiring", len(batches)),
				zap.Duration("window", within),
			)
			return nil
		},
	}
}

// NewMaintenanceScheduler builds a scheduler with both maintenance jobs
// registered. A zero expiry window skips the expiry scan.
func NewMaintenanceScheduler(cfg Config, svc BatchMaintainer, expiryWindow time.Duration, logger *zap.Logger) (*Scheduler, error) {
	s, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := s.Register(NewCleanupJob(svc)); err != nil {
		return nil, err
	}
	if expiryWindow > 0 {
		if err := s.Register(NewExpiryScanJob(svc, expiryWindow, s.logger)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
