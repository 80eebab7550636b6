package http

import (
	"net/http"

	"coop-ledger/internal/adapter/middleware"
	"coop-ledger/internal/apperr"
	"coop-ledger/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type RepaymentHandler struct{ uc RepaymentService }

func NewRepaymentHandler(uc RepaymentService) *RepaymentHandler { return &RepaymentHandler{uc: uc} }

type repayReq struct {
	Amount           decimal.Decimal `json:"amount"             validate:"money"`
	PaymentMethod    string          `json:"payment_method"     validate:"omitempty,max=32"`
	BankReceiptNo    string          `json:"bank_receipt_no"    validate:"required,ref"`
	BankReceiptImage string          `json:"bank_receipt_image" validate:"required"`
	CompanyReceipt   string          `json:"company_receipt"    validate:"omitempty,ref"`
	Notes            string          `json:"notes"`
}

func (h *RepaymentHandler) Repay(c echo.Context) error {
	var req repayReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.Repay(c.Request().Context(), repayment.RepayInput{
		LoanID:           c.Param("loan_id"),
		Amount:           req.Amount,
		PaymentMethod:    req.PaymentMethod,
		BankReceiptNo:    req.BankReceiptNo,
		BankReceiptImage: req.BankReceiptImage,
		CompanyReceipt:   req.CompanyReceipt,
		Notes:            req.Notes,
		ReceivedBy:       actor(c),
		IdempotencyKey:   middleware.IdempotencyKey(c),
		CallerID:         middleware.CallerID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Quote previews the allocation of ?amount= without posting anything.
func (h *RepaymentHandler) Quote(c echo.Context) error {
	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil || !amount.IsPositive() {
		return fail(c, apperr.New(apperr.KindInvalidAmount, "amount query parameter must be a positive number"))
	}
	q, err := h.uc.Quote(c.Request().Context(), c.Param("loan_id"), amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *RepaymentHandler) History(c echo.Context) error {
	hist, err := h.uc.History(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}

type correctReceiptReq struct {
	BankReceiptNo    string `json:"bank_receipt_no"    validate:"required,ref"`
	BankReceiptImage string `json:"bank_receipt_image" validate:"required"`
	CompanyReceipt   string `json:"company_receipt"    validate:"omitempty,ref"`
	Notes            string `json:"notes"`
}

func (h *RepaymentHandler) CorrectReceipt(c echo.Context) error {
	var req correctReceiptReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	r, err := h.uc.CorrectReceipt(c.Request().Context(), repayment.CorrectReceiptInput{
		RepaymentID:      c.Param("repayment_id"),
		BankReceiptNo:    req.BankReceiptNo,
		BankReceiptImage: req.BankReceiptImage,
		CompanyReceipt:   req.CompanyReceipt,
		Notes:            req.Notes,
		Actor:            actor(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
