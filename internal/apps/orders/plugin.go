package orders

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/pricing"
)

type OrdersPlugin struct{}

func New() *OrdersPlugin {
	return &OrdersPlugin{}
}

func (p *OrdersPlugin) ID() string { return "orders" }

func (p *OrdersPlugin) Models() []interface{} {
	return []interface{}{
		&models.Order{},
		&models.OrderItem{},
	}
}

func (p *OrdersPlugin) RegisterRoutes(r apps.Routers, deps *apps.Deps) {
	svc := NewService(deps.DB, pricing.RulesFromConfig(deps.Config), deps.Config.Currency, deps.Publisher, deps.Mailer)
	handler := NewHandler(svc)

	r.API.Post("/checkout", deps.RequireAuth, handler.Checkout)

	mine := r.API.Group("/orders", deps.RequireAuth)
	mine.Get("/", handler.ListMine)
	mine.Get("/:id", handler.GetMine)
	mine.Post("/:id/cancel", handler.CancelMine)

	r.Vendor.Get("/orders", handler.VendorList)
	r.Vendor.Get("/orders/:id", handler.VendorGet)
	r.Vendor.Put("/orders/:id/status", handler.VendorUpdateStatus)

	r.Admin.Get("/orders", handler.AdminList)
}
