package http

import (
	"time"

	"coop-ledger/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Movement  MovementService
	Repayment RepaymentService
	Loans     LoanService
	Approvals ApprovalService
	Members   MemberService
	Jobs      JobRunner
}

// Register mounts every route on e. Money-moving routes run behind the
// idempotency middleware and require a key.
func Register(e *echo.Echo, s Services, rdb redis.UniversalClient, lockTTL time.Duration, log *logrus.Logger) {
	e.Validator = NewValidator()

	e.GET("/health", NewHandler().Health)

	required := middleware.Idempotency(rdb, lockTTL, true, log)

	mv := NewMovementHandler(s.Movement)
	e.POST("/accounts/:account_id/deposits", mv.Deposit, required)
	e.POST("/accounts/:account_id/withdrawals", mv.Withdraw, required)
	e.GET("/accounts/:account_id/transactions", mv.Statement)

	rp := NewRepaymentHandler(s.Repayment)
	e.POST("/loans/:loan_id/repayments", rp.Repay, required)
	e.GET("/loans/:loan_id/repayments", rp.History)
	e.GET("/loans/:loan_id/repayment-quote", rp.Quote)
	e.PATCH("/repayments/:repayment_id/receipt", rp.CorrectReceipt)

	ln := NewLoanHandler(s.Loans)
	e.POST("/loans", ln.Apply)
	e.GET("/loans/:loan_id", ln.GetLoan)
	e.POST("/loans/:loan_id/review", ln.Review)

	ap := NewApprovalHandler(s.Approvals)
	e.POST("/loans/:loan_id/approve", ap.ApproveLoan)
	e.POST("/loans/:loan_id/reject", ap.RejectLoan)

	ad := NewAdminHandler(s.Members, s.Jobs)
	e.POST("/members/:member_id/reactivate", ad.ReactivateMember)
	e.POST("/jobs/:name/run", ad.RunJob)
}
