package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"orders-payments-saga/internal/controller/restapi/v1/response"
	"orders-payments-saga/internal/entity"
	"orders-payments-saga/internal/usecase"
	"orders-payments-saga/pkg/logger"
)

const _userIDHeader = "X-User-Id"

type ordersV1 struct {
	orders usecase.OrderUseCase
	logger logger.Interface
}

type accountsV1 struct {
	payments usecase.PaymentUseCase
	logger   logger.Interface
}

// resolveUserID prefers the X-User-Id header (set by the gateway) and
// falls back to the id supplied in the request body.
func resolveUserID(ctx *fiber.Ctx, bodyUserID *uuid.UUID) (uuid.UUID, bool) {
	if header := ctx.Get(_userIDHeader); header != "" {
		id, err := uuid.Parse(header)
		if err == nil {
			return id, true
		}
	}

	if bodyUserID != nil && *bodyUserID != uuid.Nil {
		return *bodyUserID, true
	}

	return uuid.Nil, false
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

func orderResponse(order *entity.Order) response.Order {
	return response.Order{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		Amount:      order.Amount,
		Description: order.Description,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func chargeResponse(charge *entity.Charge) response.Charge {
	return response.Charge{
		OrderID:   charge.OrderID.String(),
		UserID:    charge.UserID.String(),
		Amount:    charge.Amount,
		Status:    string(charge.Status),
		Reason:    charge.Reason,
		UpdatedAt: charge.UpdatedAt,
	}
}

func accountResponse(account *entity.Account) response.Account {
	return response.Account{
		AccountID: account.AccountID.String(),
		UserID:    account.UserID.String(),
		Balance:   account.Balance,
	}
}
