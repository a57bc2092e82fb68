package strategy

// Strategy is the base interface for pluggable algorithms
type Strategy interface {
	// Name returns the unique name of the strategy
	Name() string
	// Description returns a human-readable description
	Description() string
}

// BaseStrategy provides common implementation for strategies
type BaseStrategy struct {
	name        string
	description string
}

// NewBaseStrategy creates a new BaseStrategy
func NewBaseStrategy(name, description string) BaseStrategy {
	return BaseStrategy{
		name:        name,
		description: description,
	}
}

// Name returns the strategy name
func (s BaseStrategy) Name() string {
	return s.name
}

// Description returns the strategy description
func (s BaseStrategy) Description() string {
	return s.description
}
