// Package cache holds the cost preview caches.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
)

type previewEntry struct {
	preview   appcosting.CostPreviewResponse
	expiresAt time.Time
}

// InMemoryPreviewCache keeps previews in process memory. Expired entries
// are dropped lazily on read and by a background sweep.
type InMemoryPreviewCache struct {
	mu        sync.RWMutex
	entries   map[string]previewEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryPreviewCache creates the cache and starts its sweeper
func NewInMemoryPreviewCache(ttl time.Duration) *InMemoryPreviewCache {
	c := &InMemoryPreviewCache{
		entries:  make(map[string]previewEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.sweepLoop()
	return c
}

// Get returns a copy of a live preview
func (c *InMemoryPreviewCache) Get(_ context.Context, key string) (*appcosting.CostPreviewResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	preview := e.preview
	preview.Allocations = append([]appcosting.BatchAllocationResponse(nil), e.preview.Allocations...)
	return &preview, true
}

// Set stores a copy of preview
func (c *InMemoryPreviewCache) Set(_ context.Context, key string, preview *appcosting.CostPreviewResponse) {
	if preview == nil {
		return
	}
	stored := *preview
	stored.Allocations = append([]appcosting.BatchAllocationResponse(nil), preview.Allocations...)

	c.mu.Lock()
	c.entries[key] = previewEntry{preview: stored, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every preview of the stock position
func (c *InMemoryPreviewCache) Invalidate(_ context.Context, key inventory.StockKey) {
	prefix := key.String() + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryPreviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweeper
func (c *InMemoryPreviewCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryPreviewCache) sweepLoop() {
	defer c.wg.Done()
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryPreviewCache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ appcosting.PreviewCache = (*InMemoryPreviewCache)(nil)
