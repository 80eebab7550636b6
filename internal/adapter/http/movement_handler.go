package http

import (
	"net/http"

	"coop-ledger/internal/adapter/middleware"
	"coop-ledger/internal/usecase/movement"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type MovementHandler struct{ uc MovementService }

func NewMovementHandler(uc MovementService) *MovementHandler { return &MovementHandler{uc: uc} }

type movementReq struct {
	Amount    decimal.Decimal `json:"amount"    validate:"money"`
	Reference string          `json:"reference" validate:"max=255"`
}

func (h *MovementHandler) input(c echo.Context) (movement.Input, bool, error) {
	var req movementReq
	if ok, err := bindValid(c, &req); !ok {
		return movement.Input{}, false, err
	}
	return movement.Input{
		AccountID:      c.Param("account_id"),
		Amount:         req.Amount,
		Reference:      req.Reference,
		IdempotencyKey: middleware.IdempotencyKey(c),
		CallerID:       middleware.CallerID(c),
	}, true, nil
}

func (h *MovementHandler) Deposit(c echo.Context) error {
	in, ok, err := h.input(c)
	if !ok {
		return err
	}
	res, err := h.uc.Deposit(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *MovementHandler) Withdraw(c echo.Context) error {
	in, ok, err := h.input(c)
	if !ok {
		return err
	}
	res, err := h.uc.Withdraw(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *MovementHandler) Statement(c echo.Context) error {
	st, err := h.uc.Statement(c.Request().Context(), c.Param("account_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
