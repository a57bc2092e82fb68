package costing

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// PreviewCache stores cost previews. Implementations are best effort: a
// failed read is a miss and a failed write is dropped.
type PreviewCache interface {
	Get(ctx context.Context, key string) (*CostPreviewResponse, bool)
	Set(ctx context.Context, key string, preview *CostPreviewResponse)
	// Invalidate drops every preview of a stock position
	Invalidate(ctx context.Context, key inventory.StockKey)
}

// PreviewCacheKey builds the cache key of a preview. The stock key comes
// first so Invalidate can match on prefix.
func PreviewCacheKey(key inventory.StockKey, method string, quantity decimal.Decimal, specific string) string {
	return fmt.Sprintf("%s|%s|%s|%s", key.String(), method, quantity.String(), specific)
}

type noopPreviewCache struct{}

func (noopPreviewCache) Get(context.Context, string) (*CostPreviewResponse, bool) { return nil, false }
func (noopPreviewCache) Set(context.Context, string, *CostPreviewResponse)        {}
func (noopPreviewCache) Invalidate(context.Context, inventory.StockKey)           {}
