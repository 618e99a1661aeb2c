package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"orders-payments-saga/internal/controller/restapi/v1/response"
	"orders-payments-saga/pkg/types/errs"
)

type createAccountRequest struct {
	UserID *uuid.UUID `json:"user_id"`
}

type topUpRequest struct {
	AccountID *uuid.UUID `json:"account_id"`
	Amount    int64      `json:"amount"`
	UserID    *uuid.UUID `json:"user_id"`
}

// @Summary  	Create or get account
// @Description Returns the caller's account, creating it with a zero balance on first call
// @Tags 		accounts
// @Accept 		json
// @Produce 	json
// @Param 		request body createAccountRequest false "Account"
// @Success 	200 {object} response.Account "Existing account"
// @Success 	201 {object} response.Account "Created account"
// @Failure 	400 {object} response.Error "Missing user"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/accounts [post]
func (r *accountsV1) createAccount(ctx *fiber.Ctx) error {
	var body createAccountRequest
	if err := ctx.BodyParser(&body); err != nil && len(ctx.Body()) > 0 {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	userID, ok := resolveUserID(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "user_id is required (X-User-Id header or request body)")
	}

	account, created, err := r.payments.CreateOrGetAccount(ctx.UserContext(), userID)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - createAccount")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	return ctx.Status(status).JSON(accountResponse(account))
}

// @Summary  	Get account by user
// @Description Returns the account belonging to the calling user
// @Tags 		accounts
// @Produce 	json
// @Param 		X-User-Id header string true "User id"
// @Success 	200 {object} response.Account
// @Failure 	400 {object} response.Error "Missing user"
// @Failure 	404 {object} response.Error "Account not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/accounts [get]
func (r *accountsV1) getAccountByUser(ctx *fiber.Ctx) error {
	userID, ok := resolveUserID(ctx, nil)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "X-User-Id header is required")
	}

	account, err := r.payments.GetAccountByUserID(ctx.UserContext(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "account not found")
		}

		r.logger.Error(err, "restapi - v1 - getAccountByUser")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(accountResponse(account))
}

// @Summary  	Get account
// @Description Returns an account by its id
// @Tags 		accounts
// @Produce 	json
// @Param 		id path string true "Account id"
// @Success 	200 {object} response.Account
// @Failure 	400 {object} response.Error "Bad id"
// @Failure 	404 {object} response.Error "Account not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/accounts/{id} [get]
func (r *accountsV1) getAccount(ctx *fiber.Ctx) error {
	accountID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "account id must be a uuid")
	}

	account, err := r.payments.GetAccountByID(ctx.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "account not found")
		}

		r.logger.Error(err, "restapi - v1 - getAccount")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(accountResponse(account))
}

// @Summary  	Charge status
// @Description Returns the settlement outcome of one order's charge
// @Tags 		charges
// @Produce 	json
// @Param 		order_id path string true "Order id"
// @Success 	200 {object} response.Charge
// @Failure 	400 {object} response.Error "Bad id"
// @Failure 	404 {object} response.Error "Charge not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/charges/{order_id} [get]
func (r *accountsV1) getCharge(ctx *fiber.Ctx) error {
	orderID, err := uuid.Parse(ctx.Params("order_id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "order id must be a uuid")
	}

	charge, err := r.payments.GetCharge(ctx.UserContext(), orderID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "charge not found")
		}

		r.logger.Error(err, "restapi - v1 - getCharge")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(chargeResponse(charge))
}

// @Summary  	Top up
// @Description Unconditionally adds funds to the caller's account
// @Tags 		accounts
// @Accept 		json
// @Produce 	json
// @Param 		request body topUpRequest true "Top up"
// @Success 	200 {object} response.Balance
// @Failure 	400 {object} response.Error "Missing fields or non-positive amount"
// @Failure 	404 {object} response.Error "Account not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/accounts/topup [post]
func (r *accountsV1) topUp(ctx *fiber.Ctx) error {
	var body topUpRequest
	if err := ctx.BodyParser(&body); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	userID, ok := resolveUserID(ctx, body.UserID)
	if !ok {
		return errorResponse(ctx, http.StatusBadRequest, "user_id is required (X-User-Id header or request body)")
	}

	if body.AccountID == nil || *body.AccountID == uuid.Nil {
		return errorResponse(ctx, http.StatusBadRequest, "account_id is required")
	}

	balance, err := r.payments.TopUp(ctx.UserContext(), *body.AccountID, userID, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNonPositiveAmount):
			return errorResponse(ctx, http.StatusBadRequest, "amount must be > 0")
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "account not found")
		}

		r.logger.Error(err, "restapi - v1 - topUp")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Balance{
		AccountID: body.AccountID.String(),
		Balance:   balance,
	})
}
