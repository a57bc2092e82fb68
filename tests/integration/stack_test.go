package integration

import (
	"context"
	"testing"
	"time"

	appcosting "github.com/erp/costing/internal/application/costing"
	"github.com/erp/costing/internal/domain/inventory"
	"github.com/erp/costing/internal/infrastructure/event"
	"github.com/erp/costing/internal/infrastructure/persistence"
	"github.com/erp/costing/internal/infrastructure/strategy"
	"github.com/erp/costing/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// stack wires the services over a TestDB the way the server does
type stack struct {
	db       *TestDB
	svc      *appcosting.Service
	catalog  *appcosting.CatalogService
	bus      *event.InMemoryEventBus
	recorder *testutil.RecordingHandler
}

func newStack(t *testing.T, db *TestDB, cfg appcosting.ServiceConfig) *stack {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	recorder := testutil.NewRecordingHandler()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(recorder)

	svc := appcosting.NewService(scope, repos, registry, cfg, log)
	svc.SetEventPublisher(bus)
	return &stack{
		db:       db,
		svc:      svc,
		catalog:  appcosting.NewCatalogService(scope, repos, log),
		bus:      bus,
		recorder: recorder,
	}
}

// position registers a unit, product and packaging in a fresh warehouse
func (s *stack) position(t *testing.T, perPackage int64) inventory.StockKey {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	unit, err := s.catalog.RegisterUnit(ctx, appcosting.RegisterUnitRequest{Name: "Piece " + suffix, Symbol: "pc-" + suffix})
	require.NoError(t, err)
	product, err := s.catalog.RegisterProduct(ctx, appcosting.RegisterProductRequest{Code: "SKU-" + suffix, Name: "Widget"})
	require.NoError(t, err)
	pkg, err := s.catalog.RegisterPackaging(ctx, appcosting.RegisterPackagingRequest{
		ProductID:          product.ID,
		UnitID:             unit.ID,
		QuantityPerPackage: decimal.NewFromInt(perPackage),
	})
	require.NoError(t, err)
	return inventory.NewStockKey(uuid.New(), product.ID, pkg.ID)
}

func keyRequest(key inventory.StockKey) appcosting.StockKeyRequest {
	return appcosting.StockKeyRequest{WarehouseID: key.WarehouseID, ProductID: key.ProductID, PackagingID: key.PackagingID}
}

func (s *stack) receive(t *testing.T, key inventory.StockKey, number string, qty, cost int64, at time.Time) {
	t.Helper()
	_, err := s.svc.Receive(context.Background(), appcosting.ReceiveRequest{
		StockKeyRequest: keyRequest(key),
		Quantity:        decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(cost),
		BatchNumber:     number,
		ReceivedAt:      &at,
	})
	require.NoError(t, err)
}

func (s *stack) requireBalanced(t *testing.T, key inventory.StockKey) {
	t.Helper()
	report, err := s.svc.VerifyConservation(context.Background(), key)
	require.NoError(t, err)
	require.True(t, report.Balanced, "stock %s, batches %s", report.StockQuantity, report.BatchQuantity)
}
