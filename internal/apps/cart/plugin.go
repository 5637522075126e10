package cart

import (
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/pricing"
)

type CartPlugin struct{}

func New() *CartPlugin {
	return &CartPlugin{}
}

func (p *CartPlugin) ID() string { return "cart" }

func (p *CartPlugin) Models() []interface{} {
	return []interface{}{&models.CartItem{}}
}

func (p *CartPlugin) RegisterRoutes(r apps.Routers, deps *apps.Deps) {
	handler := NewHandler(NewService(deps.DB, pricing.RulesFromConfig(deps.Config)))

	cart := r.API.Group("/cart", deps.RequireAuth)
	cart.Get("/", handler.Get)
	cart.Post("/", handler.Add)
	cart.Delete("/", handler.Clear)
	cart.Put("/:id", handler.Update)
	cart.Delete("/:id", handler.Remove)
}
