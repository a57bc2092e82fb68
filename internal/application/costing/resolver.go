package costing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MethodResolver loads what the resolution chain needs and runs it.
// The configured default code is injected, never read from globals.
type MethodResolver struct {
	configuredDefault strategy.CostMethod
	logger            *zap.Logger
}

// NewMethodResolver creates a resolver. An empty or unknown configured
// default code simply skips that link of the chain.
func NewMethodResolver(configuredDefault string, logger *zap.Logger) *MethodResolver {
	code, ok := strategy.ParseCostMethod(configuredDefault)
	if !ok {
		code = ""
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MethodResolver{configuredDefault: code, logger: logger}
}

// Resolve returns the method that applies to (warehouse, product). Only
// storage failures are returned; configuration gaps end at the average
// fallback, whose row is created on first use.
func (r *MethodResolver) Resolve(
	ctx context.Context,
	repos TransactionalRepositories,
	warehouseID, productID uuid.UUID,
) (*costing.CostingMethod, costing.ResolutionSource, error) {
	var in costing.ResolveInput
	var err error

	in.ProductRules, err = repos.Rules().FindForProduct(ctx, warehouseID, productID)
	if err != nil {
		return nil, "", fmt.Errorf("load product rules: %w", err)
	}

	product, err := repos.Products().FindByID(ctx, productID)
	switch {
	case err == nil:
		if product.HasCategory() {
			in.CategoryRules, err = repos.Rules().FindForCategory(ctx, warehouseID, *product.CategoryID)
			if err != nil {
				return nil, "", fmt.Errorf("load category rules: %w", err)
			}
		}
	case shared.IsNotFound(err):
		// unknown product: category rules cannot apply
	default:
		return nil, "", fmt.Errorf("load product: %w", err)
	}

	if in.StoredDefault, err = optional[costing.CostingMethod](repos.Methods().FindDefault(ctx)); err != nil {
		return nil, "", fmt.Errorf("load default method: %w", err)
	}

	if r.configuredDefault != "" {
		if in.ConfiguredDefault, err = optional[costing.CostingMethod](repos.Methods().FindByCode(ctx, r.configuredDefault)); err != nil {
			return nil, "", fmt.Errorf("load configured method: %w", err)
		}
		if in.ConfiguredDefault == nil {
			in.ConfiguredDefault, _ = costing.NewCostingMethod(string(r.configuredDefault), "", "")
		}
	}

	if in.Fallback, err = optional[costing.CostingMethod](repos.Methods().FindByCode(ctx, strategy.CostMethodAverage)); err != nil {
		return nil, "", fmt.Errorf("load average method: %w", err)
	}

	res := costing.Resolve(in)
	if res.Method == nil {
		res.Method, err = r.createFallback(ctx, repos)
		if err != nil {
			return nil, "", err
		}
	}
	return res.Method, res.Source, nil
}

func (r *MethodResolver) createFallback(ctx context.Context, repos TransactionalRepositories) (*costing.CostingMethod, error) {
	method := costing.NewAverageFallbackMethod()
	if err := repos.Methods().Save(ctx, method); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// a concurrent resolver created it first; the retry will find it
			return nil, fmt.Errorf("%w: average method created concurrently", shared.ErrConcurrencyConflict)
		}
		return nil, fmt.Errorf("create average method: %w", err)
	}
	r.logger.Info("created fallback costing method", zap.String("code", string(method.Code)))
	return method, nil
}

// optional turns a not-found result into nil
func optional[T any](v *T, err error) (*T, error) {
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
