package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"orders-payments-saga/config"
	v1 "orders-payments-saga/internal/controller/restapi/v1"
	"orders-payments-saga/internal/usecase"
	"orders-payments-saga/pkg/logger"
)

// @title Orders service
// @version 1.0.0
// @BasePath /v1
func NewOrdersRouter(app *fiber.App, cfg *config.Config, orders usecase.OrderUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	app.Get("/health", healthCheck)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewOrderRoutes(apiV1Group, orders, l)
	}
}

// @title Payments service
// @version 1.0.0
// @BasePath /v1
func NewPaymentsRouter(app *fiber.App, cfg *config.Config, payments usecase.PaymentUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	app.Get("/health", healthCheck)

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewAccountRoutes(apiV1Group, payments, l)
	}
}

func healthCheck(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
