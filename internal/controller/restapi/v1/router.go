package v1

import (
	"github.com/gofiber/fiber/v2"

	"orders-payments-saga/internal/usecase"
	"orders-payments-saga/pkg/logger"
)

func NewOrderRoutes(apiV1Group fiber.Router, orders usecase.OrderUseCase, l logger.Interface) {
	r := &ordersV1{orders: orders, logger: l}

	{
		apiV1Group.Post("/orders", r.createOrder)
		apiV1Group.Get("/orders", r.listOrders)
		apiV1Group.Get("/orders/:id/status", r.orderStatus)
	}
}

func NewAccountRoutes(apiV1Group fiber.Router, payments usecase.PaymentUseCase, l logger.Interface) {
	r := &accountsV1{payments: payments, logger: l}

	{
		apiV1Group.Post("/accounts", r.createAccount)
		apiV1Group.Get("/accounts", r.getAccountByUser)
		apiV1Group.Get("/accounts/:id", r.getAccount)
		apiV1Group.Post("/accounts/topup", r.topUp)
		apiV1Group.Get("/charges/:order_id", r.getCharge)
	}
}
