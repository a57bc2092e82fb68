package router

import (
	"github.com/erp/costing/internal/interfaces/http/handler"
)

// CostingRoutes builds the /costing route table
func CostingRoutes(costing *handler.CostingHandler, catalog *handler.CatalogHandler, system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("costing", "/costing")

	g.GET("/health", system.Health)

	g.POST("/receipts", costing.Receive)
	g.POST("/consumptions", costing.Consume)
	g.POST("/movements", costing.ProcessMovement)
	g.GET("/movements", costing.ListMovements)
	g.POST("/transfers", costing.Transfer)
	g.POST("/reservations", costing.Reserve)
	g.DELETE("/reservations", costing.Release)

	g.GET("/stock", costing.GetStock)
	g.GET("/stock/conservation", costing.VerifyConservation)
	g.GET("/cost-preview", costing.GetCostPreview)

	g.POST("/reports", costing.GenerateReport)
	g.GET("/reports", costing.ListReports)
	g.GET("/reports/current", costing.GetCurrentReport)

	g.GET("/batches", costing.ListBatches)
	g.GET("/batches/expiring", costing.ListExpiringBatches)
	g.POST("/maintenance/cleanup", costing.CleanupEmptyBatches)

	g.POST("/rules", costing.CreateRule)
	g.GET("/rules", costing.ListRules)
	g.GET("/methods", costing.ListMethods)
	g.PUT("/methods/default", costing.SetDefaultMethod)
	g.GET("/methods/resolve", costing.ResolveMethod)

	cat := g.Group("catalog", "/catalog")
	cat.POST("/units", catalog.RegisterUnit)
	cat.GET("/units", catalog.ListUnits)
	cat.PUT("/units/:id", catalog.RenameUnit)
	cat.POST("/products", catalog.RegisterProduct)
	cat.GET("/products/:id", catalog.GetProduct)
	cat.GET("/products/:id/packagings", catalog.ListPackagings)
	cat.POST("/packagings", catalog.RegisterPackaging)
	cat.PUT("/packagings/:id/default", catalog.SetDefaultPackaging)

	return g
}
