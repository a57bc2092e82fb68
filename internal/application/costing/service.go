package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/catalog"
	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/erp/costing/internal/application/costing"

// ServiceConfig holds the costing knobs of the service
type ServiceConfig struct {
	// DefaultMethod is the configured default method code, consulted after
	// rules and the stored default
	DefaultMethod string
	// MaxRetries bounds how often a conflicting transaction is retried
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries
	RetryBackoff time.Duration
}

// Service is the entry point for stock movements and cost queries
type Service struct {
	txScope  TransactionScope
	repos    TransactionalRepositories
	engine   *Engine
	resolver *MethodResolver
	events   shared.EventPublisher
	cache    PreviewCache
	cfg      ServiceConfig
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates the costing service. repos is used for reads outside
// transactions; every write goes through txScope.
func NewService(
	txScope TransactionScope,
	repos TransactionalRepositories,
	strategies CostStrategyProvider,
	cfg ServiceConfig,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Service{
		txScope:  txScope,
		repos:    repos,
		engine:   NewEngine(strategies),
		resolver: NewMethodResolver(cfg.DefaultMethod, logger),
		cache:    noopPreviewCache{},
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the publisher used after each commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// SetPreviewCache enables cost preview caching
func (s *Service) SetPreviewCache(cache PreviewCache) {
	if cache == nil {
		cache = noopPreviewCache{}
	}
	s.cache = cache
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Engine exposes the cost engine for read-only calculations
func (s *Service) Engine() *Engine {
	return s.engine
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *Service) startSpan(ctx context.Context, name string, key inventory.StockKey) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "costing."+name, trace.WithAttributes(
		attribute.String("warehouse_id", key.WarehouseID.String()),
		attribute.String("product_id", key.ProductID.String()),
		attribute.String("packaging_id", key.PackagingID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// checkPackaging loads the packaging of key and verifies it belongs to the product
func checkPackaging(ctx context.Context, repos TransactionalRepositories, key inventory.StockKey) (*catalog.Packaging, error) {
	pkg, err := repos.Packagings().FindByID(ctx, key.PackagingID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewValidationError(shared.CodeInvalidPackaging, "packaging %s does not exist", key.PackagingID)
		}
		return nil, err
	}
	if !pkg.BelongsTo(key.ProductID) {
		return nil, shared.NewValidationError(shared.CodeInvalidPackaging, "packaging %s does not belong to product %s", key.PackagingID, key.ProductID)
	}
	return pkg, nil
}

// Receive creates a batch and its inbound movement, then refreshes the projection
func (s *Service) Receive(ctx context.Context, req ReceiveRequest) (resp *ReceiveResponse, err error) {
	key := req.Key()
	ctx, span := s.startSpan(ctx, "Receive", key)
	defer func() { endSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := requirePositive(req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if err := requireUnitCost(req.UnitCost); err != nil {
		return nil, err
	}
	movementType, err := inboundType(req.MovementType)
	if err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	err = s.executeWithRetry(ctx, "receive", func(repos TransactionalRepositories) error {
		events = nil
		if _, err := checkPackaging(ctx, repos, key); err != nil {
			return err
		}
		receivedAt := s.now()
		if req.ReceivedAt != nil {
			receivedAt = req.ReceivedAt.UTC()
		}
		inbound := inboundBatch{
			key:          key,
			batchNumber:  req.BatchNumber,
			quantity:     req.Quantity,
			unitCost:     req.UnitCost,
			receivedAt:   receivedAt,
			expiryDate:   req.ExpiryDate,
			supplierRef:  req.SupplierRef,
			movementType: movementType,
			reference:    req.ReferenceDocument,
		}
		batch, movement, err := s.createInboundBatch(ctx, repos, inbound)
		if err != nil {
			return err
		}
		stock, err := s.refreshStock(ctx, repos, key)
		if err != nil {
			return err
		}
		events = append(events, inventory.NewStockReceivedEvent(stock, batch, movementType))
		resp = &ReceiveResponse{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			MovementID:  movement.ID,
			Stock:       ToStockResponse(stock),
		}
		return nil
	})
	if err != nil {
		s.logRejection("receive", key, req.Quantity, err)
		return nil, err
	}

	s.logger.Info("stock received",
		zap.Stringer("key", key),
		zap.String("batch_number", resp.BatchNumber),
		zap.String("movement_type", string(movementType)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("unit_cost", req.UnitCost.String()),
	)
	s.publish(ctx, events)
	return resp, nil
}

type inboundBatch struct {
	key          inventory.StockKey
	batchNumber  string
	quantity     decimal.Decimal
	unitCost     decimal.Decimal
	receivedAt   time.Time
	expiryDate   *time.Time
	supplierRef  string
	movementType inventory.MovementType
	reference    string
	occurredAt   time.Time
}

// createInboundBatch stores a new batch and its movement. A missing batch
// number is generated; a supplied one must be unique in the position.
func (s *Service) createInboundBatch(ctx context.Context, repos TransactionalRepositories, in inboundBatch) (*inventory.StockBatch, *inventory.StockMovement, error) {
	number := in.batchNumber
	if number != "" {
		exists, err := repos.Batches().ExistsByNumber(ctx, in.key, number)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, fmt.Errorf("%w: batch number %s already used for this stock", shared.ErrAlreadyExists, number)
		}
	} else {
		generated, err := nextBatchNumber(ctx, repos, in.key, in.receivedAt)
		if err != nil {
			return nil, nil, err
		}
		number = generated
	}

	batch, err := inventory.NewStockBatch(inventory.StockBatchParams{
		Key:         in.key,
		BatchNumber: number,
		Quantity:    in.quantity,
		UnitCost:    in.unitCost,
		ReceivedAt:  in.receivedAt,
		ExpiryDate:  in.expiryDate,
		SupplierRef: in.supplierRef,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Batches().Create(ctx, batch); err != nil {
		if in.batchNumber == "" && isAlreadyExists(err) {
			// generated number taken by a concurrent receipt
			return nil, nil, fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
		}
		return nil, nil, err
	}

	occurred := in.occurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	movement, err := inventory.NewInboundMovement(inventory.MovementParams{
		Key:               in.key,
		BatchID:           &batch.ID,
		MovementType:      in.movementType,
		Quantity:          in.quantity,
		UnitCost:          in.unitCost,
		ReferenceDocument: in.reference,
		OccurredAt:        occurred,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Movements().Create(ctx, movement); err != nil {
		return nil, nil, err
	}
	return batch, movement, nil
}

func nextBatchNumber(ctx context.Context, repos TransactionalRepositories, key inventory.StockKey, day time.Time) (string, error) {
	prefix := inventory.BatchNumberPrefix(day)
	count, err := repos.Batches().CountByNumberPrefix(ctx, key, prefix)
	if err != nil {
		return "", err
	}
	return inventory.GenerateBatchNumber(day, count+1), nil
}

// refreshStock re-derives the projection of key from its active batches
func (s *Service) refreshStock(ctx context.Context, repos TransactionalRepositories, key inventory.StockKey) (*inventory.Stock, error) {
	batches, err := repos.Batches().FindActiveByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.saveProjection(ctx, repos, key, batches)
}

func (s *Service) saveProjection(ctx context.Context, repos TransactionalRepositories, key inventory.StockKey, batches []inventory.StockBatch) (*inventory.Stock, error) {
	stock, err := repos.Stocks().FindOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}
	stock.Recompute(batches)
	if err := repos.Stocks().SaveWithLock(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// Consume allocates quantity under the resolved method and commits it
func (s *Service) Consume(ctx context.Context, req ConsumeRequest) (resp *ConsumeResponse, err error) {
	key := req.Key()
	ctx, span := s.startSpan(ctx, "Consume", key)
	defer func() { endSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := requirePositive(req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	movementType, err := outboundType(req.MovementType)
	if err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	err = s.executeWithRetry(ctx, "consume", func(repos TransactionalRepositories) error {
		events = nil
		if _, err := checkPackaging(ctx, repos, key); err != nil {
			return err
		}
		out, err := s.consumeInTx(ctx, repos, outbound{
			key:             key,
			quantity:        req.Quantity,
			movementType:    movementType,
			reference:       req.ReferenceDocument,
			specificBatchID: req.SpecificBatchID,
		})
		if err != nil {
			return err
		}
		events = append(events, inventory.NewStockConsumedEvent(out.stock, string(out.result.Method), movementType,
			req.Quantity, out.result.UnitCost, len(out.result.Allocations)))
		resp = out.response()
		return nil
	})
	if err != nil {
		s.logRejection("consume", key, req.Quantity, err)
		return nil, err
	}

	s.logger.Info("stock consumed",
		zap.Stringer("key", key),
		zap.String("method", string(resp.Method)),
		zap.String("movement_type", string(movementType)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("unit_cost", resp.UnitCost.String()),
		zap.Int("batches", len(resp.Allocations)),
	)
	s.publish(ctx, events)
	return resp, nil
}

type outbound struct {
	key             inventory.StockKey
	quantity        decimal.Decimal
	movementType    inventory.MovementType
	reference       string
	specificBatchID *uuid.UUID
}

type outboundResult struct {
	result    strategy.AllocationResult
	batches   map[uuid.UUID]*inventory.StockBatch
	movements []*inventory.StockMovement
	stock     *inventory.Stock
}

func (o *outboundResult) response() *ConsumeResponse {
	movements := make([]MovementResponse, len(o.movements))
	for i, m := range o.movements {
		movements[i] = ToMovementResponse(m)
	}
	return &ConsumeResponse{
		Method:      o.result.Method,
		Quantity:    o.result.Quantity,
		UnitCost:    shared.RoundMoney(o.result.UnitCost),
		TotalCost:   shared.RoundMoney(o.result.TotalCost),
		Allocations: ToAllocationResponses(o.result.Allocations),
		Movements:   movements,
		Stock:       ToStockResponse(o.stock),
	}
}

// consumeInTx runs requested -> allocated -> committed for one position.
// Any error leaves the transaction to roll back.
func (s *Service) consumeInTx(ctx context.Context, repos TransactionalRepositories, req outbound) (*outboundResult, error) {
	method, source, err := s.resolver.Resolve(ctx, repos, req.key.WarehouseID, req.key.ProductID)
	if err != nil {
		return nil, err
	}

	batches, err := repos.Batches().FindActiveByKeyForUpdate(ctx, req.key)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Allocate(ctx, method.Code, batches, req.quantity, req.specificBatchID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("allocation computed",
		zap.Stringer("key", req.key),
		zap.String("method", string(method.Code)),
		zap.String("source", string(source)),
		zap.Int("batches", len(result.Allocations)),
	)

	touched, err := s.engine.Commit(batches, result)
	if err != nil {
		return nil, err
	}
	if err := repos.Batches().UpdateRemaining(ctx, touched); err != nil {
		return nil, err
	}

	occurred := s.now()
	movements := make([]*inventory.StockMovement, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		batchID := a.BatchID
		m, err := inventory.NewOutboundMovement(inventory.MovementParams{
			Key:               req.key,
			BatchID:           &batchID,
			MovementType:      req.movementType,
			Quantity:          a.Quantity,
			UnitCost:          a.UnitCost,
			ReferenceDocument: req.reference,
			OccurredAt:        occurred,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := repos.Movements().Create(ctx, movements...); err != nil {
		return nil, err
	}

	stock, err := s.saveProjection(ctx, repos, req.key, batches)
	if err != nil {
		return nil, err
	}

	return &outboundResult{
		result:    result,
		batches:   inventory.BatchIndex(batches),
		movements: movements,
		stock:     stock,
	}, nil
}

// ProcessStockMovement dispatches a signed movement: positive quantities
// are received, negative ones consumed
func (s *Service) ProcessStockMovement(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	switch {
	case req.Quantity.IsPositive():
		resp, err := s.Receive(ctx, ReceiveRequest{
			StockKeyRequest:   req.StockKeyRequest,
			Quantity:          req.Quantity,
			UnitCost:          req.UnitCost,
			MovementType:      req.MovementType,
			ReferenceDocument: req.ReferenceDocument,
		})
		if err != nil {
			return nil, err
		}
		return &MovementResult{Receipt: resp}, nil
	case req.Quantity.IsNegative():
		resp, err := s.Consume(ctx, ConsumeRequest{
			StockKeyRequest:   req.StockKeyRequest,
			Quantity:          req.Quantity.Neg(),
			MovementType:      req.MovementType,
			ReferenceDocument: req.ReferenceDocument,
			SpecificBatchID:   req.SpecificBatchID,
		})
		if err != nil {
			return nil, err
		}
		return &MovementResult{Consumption: resp}, nil
	default:
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity, "movement quantity must not be zero")
	}
}

// Transfer consumes at the source warehouse and receives the same batches,
// at their own costs, at the destination, in one transaction
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (resp *TransferResponse, err error) {
	from := inventory.NewStockKey(req.FromWarehouseID, req.ProductID, req.PackagingID)
	ctx, span := s.startSpan(ctx, "Transfer", from)
	defer func() { endSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewValidationError(shared.CodeValidation, "source and destination warehouse must differ")
	}
	if err := requirePositive(req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	to := from.WithWarehouse(req.ToWarehouseID)

	var events []shared.DomainEvent
	err = s.executeWithRetry(ctx, "transfer", func(repos TransactionalRepositories) error {
		events = nil
		if _, err := checkPackaging(ctx, repos, from); err != nil {
			return err
		}
		out, err := s.consumeInTx(ctx, repos, outbound{
			key:             from,
			quantity:        req.Quantity,
			movementType:    inventory.MovementTypeTransferOut,
			reference:       req.ReferenceDocument,
			specificBatchID: req.SpecificBatchID,
		})
		if err != nil {
			return err
		}
		events = append(events, inventory.NewStockConsumedEvent(out.stock, string(out.result.Method),
			inventory.MovementTypeTransferOut, req.Quantity, out.result.UnitCost, len(out.result.Allocations)))

		occurred := s.now()
		inbound := make([]BatchResponse, 0, len(out.result.Allocations))
		created := make([]*inventory.StockBatch, 0, len(out.result.Allocations))
		for _, a := range out.result.Allocations {
			source := out.batches[a.BatchID]
			number, err := transferBatchNumber(ctx, repos, to, source, occurred)
			if err != nil {
				return err
			}
			batch, _, err := s.createInboundBatch(ctx, repos, inboundBatch{
				key:          to,
				batchNumber:  number,
				quantity:     a.Quantity,
				unitCost:     a.UnitCost,
				receivedAt:   source.ReceivedAt,
				expiryDate:   source.ExpiryDate,
				supplierRef:  source.SupplierRef,
				movementType: inventory.MovementTypeTransferIn,
				reference:    req.ReferenceDocument,
				occurredAt:   occurred,
			})
			if err != nil {
				return err
			}
			created = append(created, batch)
			inbound = append(inbound, ToBatchResponse(batch))
		}

		destStock, err := s.refreshStock(ctx, repos, to)
		if err != nil {
			return err
		}
		for _, b := range created {
			events = append(events, inventory.NewStockReceivedEvent(destStock, b, inventory.MovementTypeTransferIn))
		}
		resp = &TransferResponse{
			Outbound:         *out.response(),
			InboundBatches:   inbound,
			DestinationStock: ToStockResponse(destStock),
		}
		return nil
	})
	if err != nil {
		s.logRejection("transfer", from, req.Quantity, err)
		return nil, err
	}

	s.logger.Info("stock transferred",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("quantity", req.Quantity.String()),
		zap.Int("batches", len(resp.InboundBatches)),
	)
	s.publish(ctx, events)
	return resp, nil
}

// transferBatchNumber keeps the source batch number at the destination
// when it is free there, otherwise generates one
func transferBatchNumber(ctx context.Context, repos TransactionalRepositories, to inventory.StockKey, source *inventory.StockBatch, day time.Time) (string, error) {
	if source != nil {
		exists, err := repos.Batches().ExistsByNumber(ctx, to, source.BatchNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return source.BatchNumber, nil
		}
	}
	return nextBatchNumber(ctx, repos, to, day)
}

// Reserve holds available quantity for a pending consumer
func (s *Service) Reserve(ctx context.Context, req ReservationRequest) (*StockResponse, error) {
	return s.changeReservation(ctx, "reserve", req, func(stock *inventory.Stock) error {
		return stock.Reserve(req.Quantity, req.Reference)
	})
}

// Release returns reserved quantity
func (s *Service) Release(ctx context.Context, req ReservationRequest) (*StockResponse, error) {
	return s.changeReservation(ctx, "release", req, func(stock *inventory.Stock) error {
		return stock.Release(req.Quantity, req.Reference)
	})
}

func (s *Service) changeReservation(ctx context.Context, op string, req ReservationRequest, apply func(*inventory.Stock) error) (resp *StockResponse, err error) {
	key := req.Key()
	ctx, span := s.startSpan(ctx, op, key)
	defer func() { endSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := requirePositive(req.Quantity, "quantity"); err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	err = s.executeWithRetry(ctx, op, func(repos TransactionalRepositories) error {
		stock, err := repos.Stocks().FindByKey(ctx, key)
		if err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
			stock = inventory.NewStock(key)
			stock.Recompute(nil)
		}
		if err := apply(stock); err != nil {
			return err
		}
		if err := repos.Stocks().SaveWithLock(ctx, stock); err != nil {
			return err
		}
		events = stock.GetDomainEvents()
		stock.ClearDomainEvents()
		out := ToStockResponse(stock)
		resp = &out
		return nil
	})
	if err != nil {
		s.logRejection(op, key, req.Quantity, err)
		return nil, err
	}
	s.logger.Info("reservation changed",
		zap.String("operation", op),
		zap.Stringer("key", key),
		zap.String("quantity", req.Quantity.String()),
		zap.String("reserved", resp.ReservedQuantity.String()),
	)
	s.publish(ctx, events)
	return resp, nil
}

// GetStock returns the projection of a position; a position that never
// held stock reads as zero
func (s *Service) GetStock(ctx context.Context, key inventory.StockKey) (*StockResponse, error) {
	stock, err := s.repos.Stocks().FindByKey(ctx, key)
	if err != nil {
		if shared.IsNotFound(err) {
			resp := emptyStockResponse(key)
			return &resp, nil
		}
		return nil, err
	}
	resp := ToStockResponse(stock)
	return &resp, nil
}

// GetCostPreview computes what consuming quantity would cost without
// touching any batch
func (s *Service) GetCostPreview(ctx context.Context, req CostPreviewRequest) (resp *CostPreviewResponse, err error) {
	key := req.Key()
	ctx, span := s.startSpan(ctx, "GetCostPreview", key)
	defer func() { endSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := requirePositive(req.Quantity, "quantity"); err != nil {
		return nil, err
	}

	code, source, err := s.previewMethod(ctx, req)
	if err != nil {
		return nil, err
	}

	specific := ""
	if req.SpecificBatchID != nil {
		specific = req.SpecificBatchID.String()
	}
	// resolved previews are keyed by the method that applied, so a rule or
	// default change never serves a preview priced under the old method
	method := string(code)
	if source != costing.SourceOverride {
		method += "@" + string(source)
	}
	cacheKey := PreviewCacheKey(key, method, req.Quantity, specific)
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		return cached, nil
	}

	batches, err := s.repos.Batches().FindActiveByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.Allocate(ctx, code, batches, req.Quantity, req.SpecificBatchID)
	if err != nil {
		return nil, err
	}

	resp = &CostPreviewResponse{
		Method:      result.Method,
		Source:      source,
		Quantity:    req.Quantity,
		Available:   strategy.TotalRemaining(inventory.BatchEntries(batches)),
		UnitCost:    shared.RoundMoney(result.UnitCost),
		TotalCost:   shared.RoundMoney(result.TotalCost),
		Allocations: ToAllocationResponses(result.Allocations),
	}
	s.cache.Set(ctx, cacheKey, resp)
	return resp, nil
}

// previewMethod returns the method a preview is priced with. Resolution
// may create the average fallback row, so it runs under the retry loop.
func (s *Service) previewMethod(ctx context.Context, req CostPreviewRequest) (strategy.CostMethod, costing.ResolutionSource, error) {
	if req.Method != "" {
		code, ok := strategy.ParseCostMethod(req.Method)
		if !ok {
			return "", "", shared.NewValidationError(shared.CodeInvalidMethod, "unknown costing method %q", req.Method)
		}
		return code, costing.SourceOverride, nil
	}

	var (
		code   strategy.CostMethod
		source costing.ResolutionSource
	)
	err := s.executeWithRetry(ctx, "resolve_method", func(repos TransactionalRepositories) error {
		method, src, err := s.resolver.Resolve(ctx, repos, req.WarehouseID, req.ProductID)
		if err != nil {
			return err
		}
		code, source = method.Code, src
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return code, source, nil
}

// GenerateCostReport stores a new current cost snapshot for a position
func (s *Service) GenerateCostReport(ctx context.Context, key inventory.StockKey) (resp *CostCalculationResponse, err error) {
	ctx, span := s.startSpan(ctx, "GenerateCostReport", key)
	defer func() { endSpan(span, err) }()

	if key.IsZero() {
		return nil, shared.NewValidationError(shared.CodeValidation, "warehouse, product and packaging are required")
	}

	var calc *inventory.CostCalculation
	err = s.executeWithRetry(ctx, "generate_cost_report", func(repos TransactionalRepositories) error {
		pkg, err := checkPackaging(ctx, repos, key)
		if err != nil {
			return err
		}
		batches, err := repos.Batches().FindActiveByKey(ctx, key)
		if err != nil {
			return err
		}

		calc = inventory.NewCostCalculation(key, batches, pkg.QuantityPerPackage)
		one := decimal.NewFromInt(1)
		calc.SetFIFO(s.engine.CalculateFIFOCost(ctx, batches, one))
		calc.SetLIFO(s.engine.CalculateLIFOCost(ctx, batches, one))
		calc.CalculatedAt = s.now()

		if err := repos.CostCalculations().ClearCurrent(ctx, key); err != nil {
			return err
		}
		return repos.CostCalculations().Create(ctx, calc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cost report generated",
		zap.Stringer("key", key),
		zap.String("average_cost", calc.AverageCost.String()),
		zap.String("total_value", calc.TotalValue.String()),
		zap.Int("batch_count", calc.BatchCount),
	)
	s.publish(ctx, []shared.DomainEvent{inventory.NewCostCalculationGeneratedEvent(calc)})
	out := ToCostCalculationResponse(calc)
	return &out, nil
}

// GetCurrentCostReport returns the current snapshot of a position
func (s *Service) GetCurrentCostReport(ctx context.Context, key inventory.StockKey) (*CostCalculationResponse, error) {
	calc, err := s.repos.CostCalculations().FindCurrent(ctx, key)
	if err != nil {
		return nil, err
	}
	out := ToCostCalculationResponse(calc)
	return &out, nil
}

// ListCostReports returns the snapshots of a position, newest first
func (s *Service) ListCostReports(ctx context.Context, key inventory.StockKey, filter shared.Filter) (*shared.Paginated[CostCalculationResponse], error) {
	filter = filter.Normalize()
	calcs, total, err := s.repos.CostCalculations().FindByKey(ctx, key, filter)
	if err != nil {
		return nil, err
	}
	items := make([]CostCalculationResponse, len(calcs))
	for i := range calcs {
		items[i] = ToCostCalculationResponse(&calcs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CleanupEmptyBatches deactivates active batches with nothing remaining.
// Running it twice changes nothing the second time.
func (s *Service) CleanupEmptyBatches(ctx context.Context, warehouseID *uuid.UUID) (int64, error) {
	var count int64
	err := s.executeWithRetry(ctx, "cleanup_empty_batches", func(repos TransactionalRepositories) error {
		n, err := repos.Batches().DeactivateEmpty(ctx, warehouseID)
		count = n
		return err
	})
	if err != nil {
		s.logger.Error("batch cleanup failed", zap.Error(err))
		return 0, err
	}

	fields := []zap.Field{zap.Int64("deactivated", count)}
	if warehouseID != nil {
		fields = append(fields, zap.Stringer("warehouse_id", *warehouseID))
	}
	s.logger.Info("empty batches cleaned up", fields...)
	if count > 0 {
		s.publish(ctx, []shared.DomainEvent{inventory.NewEmptyBatchesDeactivatedEvent(warehouseID, count)})
	}
	return count, nil
}

// ListExpiringBatches returns non-empty active batches expiring within the window
func (s *Service) ListExpiringBatches(ctx context.Context, within time.Duration, warehouseID *uuid.UUID) ([]BatchResponse, error) {
	if within <= 0 {
		return nil, shared.NewValidationError(shared.CodeValidation, "expiry window must be positive")
	}
	batches, err := s.repos.Batches().FindExpiring(ctx, s.now().Add(within), warehouseID)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(batches), nil
}

// ListBatches lists batches with filtering and paging
func (s *Service) ListBatches(ctx context.Context, filter inventory.BatchFilter) (*shared.Paginated[BatchResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	batches, total, err := s.repos.Batches().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToBatchResponses(batches), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListMovements lists the movement journal with filtering and paging
func (s *Service) ListMovements(ctx context.Context, filter inventory.MovementFilter) (*shared.Paginated[MovementResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	movements, total, err := s.repos.Movements().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMovementResponses(movements), total, filter.Page, filter.PageSize)
	return &page, nil
}

// VerifyConservation checks that the projection quantity equals the sum of
// remaining quantity over the active batches
func (s *Service) VerifyConservation(ctx context.Context, key inventory.StockKey) (*ConservationReport, error) {
	batches, err := s.repos.Batches().FindActiveByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	batchQty := strategy.TotalRemaining(inventory.BatchEntries(batches))

	stockQty := decimal.Zero
	stock, err := s.repos.Stocks().FindByKey(ctx, key)
	switch {
	case err == nil:
		stockQty = stock.Quantity
	case !shared.IsNotFound(err):
		return nil, err
	}

	report := &ConservationReport{
		StockQuantity: stockQty,
		BatchQuantity: batchQty,
		Balanced:      stockQty.Equal(batchQty),
	}
	if !report.Balanced {
		s.logger.Error("stock projection out of balance",
			zap.Stringer("key", key),
			zap.String("stock_quantity", stockQty.String()),
			zap.String("batch_quantity", batchQty.String()),
		)
	}
	return report, nil
}

func (s *Service) logRejection(op string, key inventory.StockKey, quantity decimal.Decimal, err error) {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.Stringer("key", key),
		zap.String("quantity", quantity.String()),
		zap.Error(err),
	}
	if shared.IsValidationError(err) || isBusinessRejection(err) {
		s.logger.Warn("stock movement rejected", fields...)
		return
	}
	s.logger.Error("stock movement failed", fields...)
}
