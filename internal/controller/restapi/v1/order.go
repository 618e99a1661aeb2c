package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"orders-payments-saga/internal/controller/restapi/v1/response"
	"orders-payments-saga/pkg/types/errs"
)

type createOrderRequest struct {
	Amount      int64      `json:"amount"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"user_id"`
}

// @Summary  	Create order
// @Description Creates an order and durably enqueues a PaymentRequested event in the same transaction
// @Tags 		orders
// @Accept 		json
// @Produce 	json
// @Param 		request body createOrderRequest true "Order"
// @Success 	201 {object} response.Order
// @Failure 	400 {object} response.Error "Missing user or non-positive amount"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/orders [post]
func (r *ordersV1) createOrder(ctx *fiber.Ctx) error {
	var body createOrderRequest
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	userID, ok := resolveUserID(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "user_id is required (X-User-Id header or request body)")
	}

	if body.Amount <= 0 {
		return errorResponse(ctx, http.StatusBadRequest, "amount must be > 0")
	}

	order, err := r.orders.CreateOrder(ctx.UserContext(), userID, body.Amount, body.Description)
	if err != nil {
		if errors.Is(err, errs.ErrNonPositiveAmount) {
			return errorResponse(ctx, http.StatusBadRequest, "amount must be > 0")
		}

		r.logger.Error(err, "restapi - v1 - createOrder")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusCreated).JSON(orderResponse(order))
}

// @Summary  	List orders
// @Description Lists the caller's orders, newest first
// @Tags 		orders
// @Produce 	json
// @Param 		X-User-Id header string true "User id"
// @Success 	200 {array} response.Order
// @Failure 	400 {object} response.Error "Missing user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/orders [get]
func (r *ordersV1) listOrders(ctx *fiber.Ctx) error {
	userID, ok := resolveUserID(ctx, nil)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "X-User-Id header is required")
	}

	orders, err := r.orders.ListOrders(ctx.UserContext(), userID)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listOrders")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := make([]response.Order, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, orderResponse(order))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

// @Summary  	Order status
// @Description Returns the current saga status of one order
// @Tags 		orders
// @Produce 	json
// @Param 		X-User-Id header string true "User id"
// @Param 		id path string true "Order id"
// @Success 	200 {object} response.OrderStatus
// @Failure 	400 {object} response.Error "Missing user or bad id"
// @Failure 	404 {object} response.Error "Order not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/orders/{id}/status [get]
func (r *ordersV1) orderStatus(ctx *fiber.Ctx) error {
	userID, ok := resolveUserID(ctx, nil)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "X-User-Id header is required")
	}

	orderID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "order id must be a uuid")
	}

	order, err := r.orders.GetOrder(ctx.UserContext(), userID, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "order not found")
		}

		r.logger.Error(err, "restapi - v1 - orderStatus")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.OrderStatus{
		ID:     order.ID.String(),
		Status: string(order.Status),
	})
}
