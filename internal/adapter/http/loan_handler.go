package http

import (
	"net/http"

	domain "coop-ledger/internal/domain/loan"
	"coop-ledger/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc LoanService }

func NewLoanHandler(uc LoanService) *LoanHandler { return &LoanHandler{uc: uc} }

type applyLoanReq struct {
	MemberID           string          `json:"member_id"           validate:"required,ref"`
	Amount             decimal.Decimal `json:"amount"              validate:"money"`
	InterestRate       decimal.Decimal `json:"interest_rate"       validate:"rate"`
	InterestType       string          `json:"interest_type"       validate:"required,oneof=FLAT DECLINING"`
	TermMonths         int             `json:"term_months"         validate:"gte=1,lte=360"`
	RepaymentFrequency string          `json:"repayment_frequency" validate:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY"`
	PenaltyRate        decimal.Decimal `json:"penalty_rate"        validate:"rate"`
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Apply(c.Request().Context(), loan.ApplyInput{
		MemberID:           req.MemberID,
		Amount:             req.Amount,
		InterestRate:       req.InterestRate,
		InterestType:       domain.InterestType(req.InterestType),
		TermMonths:         req.TermMonths,
		RepaymentFrequency: domain.Frequency(req.RepaymentFrequency),
		PenaltyRate:        req.PenaltyRate,
		Actor:              actor(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Review(c echo.Context) error {
	dto, err := h.uc.Review(c.Request().Context(), c.Param("loan_id"), actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
