package strategy

import (
	"errors"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/erp/costing/internal/infrastructure/strategy/cost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []strategy.CostMethod{
		strategy.CostMethodAverage,
		strategy.CostMethodFIFO,
		strategy.CostMethodLIFO,
		strategy.CostMethodSpecific,
	}, r.ListCostStrategies())
	assert.Equal(t, strategy.CostMethodAverage, r.DefaultMethod())

	for _, m := range strategy.AllCostMethods() {
		s, err := r.GetCostStrategy(m)
		require.NoError(t, err)
		assert.Equal(t, m, s.Method())
	}
}

func TestStrategyRegistry_RegisterDuplicate(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterCostStrategy(cost.NewFIFOCostStrategy()))

	err := r.RegisterCostStrategy(cost.NewFIFOCostStrategy())
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestStrategyRegistry_GetCostStrategy(t *testing.T) {
	r := NewStrategyRegistry()

	_, err := r.GetCostStrategy("")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "no default set yet")

	require.NoError(t, r.RegisterCostStrategy(cost.NewLIFOCostStrategy()))
	require.NoError(t, r.SetDefault(strategy.CostMethodLIFO))

	s, err := r.GetCostStrategy("")
	require.NoError(t, err)
	assert.Equal(t, strategy.CostMethodLIFO, s.Method())

	_, err = r.GetCostStrategy(strategy.CostMethodFIFO)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	fallback := r.GetCostStrategyOrDefault(strategy.CostMethodFIFO)
	require.NotNil(t, fallback)
	assert.Equal(t, strategy.CostMethodLIFO, fallback.Method())
}

func TestStrategyRegistry_SetDefaultUnknown(t *testing.T) {
	r := NewStrategyRegistry()
	err := r.SetDefault(strategy.CostMethodFIFO)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestStrategyRegistry_Unregister(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	require.NoError(t, r.UnregisterCostStrategy(strategy.CostMethodAverage))
	assert.Equal(t, strategy.CostMethod(""), r.DefaultMethod())
	assert.Len(t, r.ListCostStrategies(), 3)

	err = r.UnregisterCostStrategy(strategy.CostMethodAverage)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
