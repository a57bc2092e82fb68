package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentConsumption_NeverOversells(t *testing.T) {
	db := NewTestDB(t)
	s := newStack(t, db, appcosting.ServiceConfig{DefaultMethod: "fifo", MaxRetries: 10, RetryBackoff: 5 * time.Millisecond})
	key := s.position(t, 1)
	s.receive(t, key, "A", 100, 10, t0)
	s.receive(t, key, "B", 50, 12, t0.Add(time.Hour))

	const workers = 20
	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int32
		insufficient atomic.Int32
		unexpected   = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Consume(context.Background(), appcosting.ConsumeRequest{
				StockKeyRequest: keyRequest(key),
				Quantity:        decimal.NewFromInt(10),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, shared.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	wg.Wait()
	close(unexpected)

	for err := range unexpected {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, int32(15), succeeded.Load())
	assert.Equal(t, int32(5), insufficient.Load())

	stock, err := s.svc.GetStock(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, stock.Quantity.IsZero(), stock.Quantity.String())
	s.requireBalanced(t, key)
}

func TestConcurrentReceipts_GenerateDistinctBatchNumbers(t *testing.T) {
	db := NewTestDB(t)
	s := newStack(t, db, appcosting.ServiceConfig{DefaultMethod: "fifo", MaxRetries: 10, RetryBackoff: 5 * time.Millisecond})
	key := s.position(t, 1)
	s.receive(t, key, "SEED", 1, 10, t0)

	const workers = 5
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.svc.Receive(context.Background(), appcosting.ReceiveRequest{
				StockKeyRequest: keyRequest(key),
				Quantity:        decimal.NewFromInt(2),
				UnitCost:        decimal.NewFromInt(10),
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- resp.BatchNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Errorf("receipt failed: %v", err)
	}
	seen := make(map[string]bool)
	for n := range numbers {
		assert.False(t, seen[n], "duplicate batch number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)

	stock, err := s.svc.GetStock(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "11", stock.Quantity.String())
	s.requireBalanced(t, key)
}
