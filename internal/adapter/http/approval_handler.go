package http

import (
	"net/http"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/usecase/approval"

	"github.com/labstack/echo/v4"
)

type ApprovalHandler struct{ uc ApprovalService }

func NewApprovalHandler(uc ApprovalService) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

type approveLoanReq struct {
	// Accept canonical date `YYYY-MM-DD` (aligns with schema DATE)
	DisbursementDate string `json:"disbursement_date" validate:"omitempty,datetime=2006-01-02"`
	Notes            string `json:"notes"`
}

type rejectLoanReq struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (h *ApprovalHandler) ApproveLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Kind: apperr.KindBadRequest, Error: "missing loan_id path param"})
	}
	var req approveLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	var disbursed time.Time
	if req.DisbursementDate != "" {
		// already validated by the datetime tag
		disbursed, _ = time.Parse(time.DateOnly, req.DisbursementDate)
	}
	dto, err := h.uc.Approve(c.Request().Context(), approval.ApproveInput{
		LoanID: loanID, Actor: actor(c), Notes: req.Notes, DisbursedAt: disbursed,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) RejectLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Kind: apperr.KindBadRequest, Error: "missing loan_id path param"})
	}
	var req rejectLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), approval.RejectInput{LoanID: loanID, Actor: actor(c), Reason: req.Reason})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
