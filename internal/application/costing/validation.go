package costing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs struct tag validation and converts failures into a
// VALIDATION_ERROR domain error
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewValidationError(shared.CodeValidation, "%s", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return shared.NewValidationError(shared.CodeValidation, "%s", strings.Join(msgs, "; "))
}

func requirePositive(quantity decimal.Decimal, what string) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "%s must be positive, got %s", what, quantity)
	}
	if !shared.FitsStorageScale(quantity) {
		return shared.NewValidationError(shared.CodeInvalidQuantity, "%s allows at most %d decimal places, got %s", what, shared.StorageScale, quantity)
	}
	return nil
}

func requireUnitCost(cost decimal.Decimal) error {
	if cost.LessThan(shared.MinUnitCost) {
		return shared.NewValidationError(shared.CodeInvalidCost, "unit cost must be at least %s, got %s", shared.MinUnitCost, cost)
	}
	if !shared.FitsStorageScale(cost) {
		return shared.NewValidationError(shared.CodeInvalidCost, "unit cost allows at most %d decimal places, got %s", shared.StorageScale, cost)
	}
	return nil
}

// inboundType parses a receive movement type, defaulting to receipt
func inboundType(raw string) (inventory.MovementType, error) {
	if raw == "" {
		return inventory.MovementTypeReceipt, nil
	}
	t := inventory.MovementType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.CanReceive() {
		return "", shared.NewValidationError(shared.CodeInvalidMovementType, "movement type %q cannot receive stock", raw)
	}
	return t, nil
}

// outboundType parses a consume movement type, defaulting to consumption
func outboundType(raw string) (inventory.MovementType, error) {
	if raw == "" {
		return inventory.MovementTypeConsumption, nil
	}
	t := inventory.MovementType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.CanConsume() {
		return "", shared.NewValidationError(shared.CodeInvalidMovementType, "movement type %q cannot consume stock", raw)
	}
	return t, nil
}
