package http

import (
	"context"
	"net/http"
	"time"

	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/usecase/approval"
	ucLoan "coop-ledger/internal/usecase/loan"
	"coop-ledger/internal/usecase/movement"
	"coop-ledger/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type MovementService interface {
	Deposit(ctx context.Context, in movement.Input) (*movement.Result, error)
	Withdraw(ctx context.Context, in movement.Input) (*movement.Result, error)
	Statement(ctx context.Context, accountID string) (*movement.Statement, error)
}

type RepaymentService interface {
	Repay(ctx context.Context, in repayment.RepayInput) (*repayment.RepayResult, error)
	Quote(ctx context.Context, loanID string, amount decimal.Decimal) (*repayment.Quote, error)
	CorrectReceipt(ctx context.Context, in repayment.CorrectReceiptInput) (*loan.Repayment, error)
	History(ctx context.Context, loanID string) (*repayment.History, error)
}

type LoanService interface {
	Apply(ctx context.Context, in ucLoan.ApplyInput) (*ucLoan.LoanDTO, error)
	Get(ctx context.Context, loanID string) (*ucLoan.LoanDTO, error)
	Review(ctx context.Context, loanID, actor string) (*ucLoan.LoanDTO, error)
}

type ApprovalService interface {
	Approve(ctx context.Context, in approval.ApproveInput) (*approval.DecisionDTO, error)
	Reject(ctx context.Context, in approval.RejectInput) (*approval.DecisionDTO, error)
}

type MemberService interface {
	ReactivateMember(ctx context.Context, memberID, notes, actor string) (*member.Member, error)
}

type JobRunner interface {
	Trigger(ctx context.Context, name string) (any, error)
}

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}
