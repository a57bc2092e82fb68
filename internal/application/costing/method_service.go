package costing

import (
	"context"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolveMethod reports the method that applies to a product in a warehouse
func (s *Service) ResolveMethod(ctx context.Context, warehouseID, productID uuid.UUID) (*ResolvedMethodResponse, error) {
	if warehouseID == uuid.Nil || productID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeValidation, "warehouse and product are required")
	}
	var resp *ResolvedMethodResponse
	err := s.executeWithRetry(ctx, "resolve_method", func(repos TransactionalRepositories) error {
		method, source, err := s.resolver.Resolve(ctx, repos, warehouseID, productID)
		if err != nil {
			return err
		}
		resp = &ResolvedMethodResponse{Method: ToMethodResponse(method), Source: source}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListMethods returns the stored costing methods
func (s *Service) ListMethods(ctx context.Context) ([]MethodResponse, error) {
	methods, err := s.repos.Methods().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MethodResponse, len(methods))
	for i := range methods {
		out[i] = ToMethodResponse(&methods[i])
	}
	return out, nil
}

// findOrCreateMethod returns the stored row for code, creating it if needed
func findOrCreateMethod(ctx context.Context, repos TransactionalRepositories, raw string) (*costing.CostingMethod, error) {
	code, ok := strategy.ParseCostMethod(raw)
	if !ok {
		return nil, shared.NewValidationError(shared.CodeInvalidMethod, "unknown costing method %q", raw)
	}
	method, err := repos.Methods().FindByCode(ctx, code)
	if err == nil {
		return method, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	method, err = costing.NewCostingMethod(string(code), "", "")
	if err != nil {
		return nil, err
	}
	if err := repos.Methods().Save(ctx, method); err != nil {
		if isAlreadyExists(err) {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, err
	}
	return method, nil
}

// CreateCostingRule stores a product or category scoped rule
func (s *Service) CreateCostingRule(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var resp *RuleResponse
	err := s.executeWithRetry(ctx, "create_costing_rule", func(repos TransactionalRepositories) error {
		method, err := findOrCreateMethod(ctx, repos, req.MethodCode)
		if err != nil {
			return err
		}
		rule, err := costing.NewCostingRule(method.ID, req.WarehouseID, req.ProductID, req.CategoryID, req.Priority)
		if err != nil {
			return err
		}
		if err := repos.Rules().Save(ctx, rule); err != nil {
			return err
		}
		out := ToRuleResponse(rule, method.Code)
		resp = &out
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("costing rule created",
		zap.Stringer("rule_id", resp.ID),
		zap.String("method", string(resp.Method)),
		zap.String("scope", string(resp.Scope)),
		zap.Int("priority", resp.Priority),
	)
	return resp, nil
}

// ListRules returns the rules of a warehouse
func (s *Service) ListRules(ctx context.Context, warehouseID uuid.UUID) ([]RuleResponse, error) {
	rules, err := s.repos.Rules().FindByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	codes := make(map[uuid.UUID]strategy.CostMethod)
	out := make([]RuleResponse, len(rules))
	for i := range rules {
		r := &rules[i]
		code, ok := codes[r.MethodID]
		if !ok {
			method, err := s.repos.Methods().FindByID(ctx, r.MethodID)
			if err != nil {
				return nil, err
			}
			code = method.Code
			codes[r.MethodID] = code
		}
		out[i] = ToRuleResponse(r, code)
	}
	return out, nil
}

// SetDefaultMethod makes code the stored default method
func (s *Service) SetDefaultMethod(ctx context.Context, code string) (*MethodResponse, error) {
	var resp *MethodResponse
	err := s.executeWithRetry(ctx, "set_default_method", func(repos TransactionalRepositories) error {
		method, err := findOrCreateMethod(ctx, repos, code)
		if err != nil {
			return err
		}
		if err := repos.Methods().SetDefault(ctx, method.ID); err != nil {
			return err
		}
		method.MarkDefault()
		out := ToMethodResponse(method)
		resp = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("default costing method changed", zap.String("method", string(resp.Code)))
	return resp, nil
}
