package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
)

// StrategyRegistry maps costing method codes to their algorithms
type StrategyRegistry struct {
	mu             sync.RWMutex
	costStrategies map[strategy.CostMethod]strategy.CostCalculationStrategy
	defaultMethod  strategy.CostMethod
}

// NewStrategyRegistry creates an empty strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		costStrategies: make(map[strategy.CostMethod]strategy.CostCalculationStrategy),
	}
}

// RegisterCostStrategy registers a cost calculation strategy under its method
func (r *StrategyRegistry) RegisterCostStrategy(s strategy.CostCalculationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	method := s.Method()
	if _, exists := r.costStrategies[method]; exists {
		return fmt.Errorf("%w: cost strategy '%s' already registered", shared.ErrAlreadyExists, method)
	}
	r.costStrategies[method] = s
	return nil
}

// GetCostStrategy returns the strategy for method, or the default if method is empty
func (r *StrategyRegistry) GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method == "" {
		method = r.defaultMethod
		if method == "" {
			return nil, fmt.Errorf("%w: no default cost strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.costStrategies[method]
	if !exists {
		return nil, fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, method)
	}
	return s, nil
}

// GetCostStrategyOrDefault returns the strategy for method, or the default if not registered
func (r *StrategyRegistry) GetCostStrategyOrDefault(method strategy.CostMethod) strategy.CostCalculationStrategy {
	s, err := r.GetCostStrategy(method)
	if err != nil {
		s, _ = r.GetCostStrategy("")
	}
	return s
}

// SetDefault sets the method used when none is requested
func (r *StrategyRegistry) SetDefault(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[method]; !exists {
		return fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, method)
	}
	r.defaultMethod = method
	return nil
}

// DefaultMethod returns the current default method
func (r *StrategyRegistry) DefaultMethod() strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultMethod
}

// ListCostStrategies returns all registered methods in sorted order
func (r *StrategyRegistry) ListCostStrategies() []strategy.CostMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]strategy.CostMethod, 0, len(r.costStrategies))
	for m := range r.costStrategies {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// UnregisterCostStrategy removes a cost strategy
func (r *StrategyRegistry) UnregisterCostStrategy(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[method]; !exists {
		return fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, method)
	}
	delete(r.costStrategies, method)

	if r.defaultMethod == method {
		r.defaultMethod = ""
	}
	return nil
}
