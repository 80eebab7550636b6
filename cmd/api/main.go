package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "coop-ledger/internal/adapter/http"
	"coop-ledger/internal/adapter/notify"
	"coop-ledger/internal/adapter/repository/mysql"
	"coop-ledger/internal/adapter/scheduler"
	"coop-ledger/internal/config"
	"coop-ledger/internal/infrastructure/cache"
	"coop-ledger/internal/infrastructure/db"
	"coop-ledger/internal/infrastructure/lease"
	"coop-ledger/internal/usecase/activity"
	"coop-ledger/internal/usecase/approval"
	"coop-ledger/internal/usecase/events"
	"coop-ledger/internal/usecase/idempotency"
	"coop-ledger/internal/usecase/interest"
	ucLoan "coop-ledger/internal/usecase/loan"
	"coop-ledger/internal/usecase/movement"
	"coop-ledger/internal/usecase/penalty"
	"coop-ledger/internal/usecase/policy"
	"coop-ledger/internal/usecase/repayment"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := mysql.AutoMigrate(gdb); err != nil {
		log.WithError(err).Fatal("migrate schema")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	accounts := mysql.NewAccountRepository(gdb)
	members := mysql.NewMemberRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	pol := policy.New(mysql.NewSettingRepository(gdb), policy.Defaults{
		InactiveDays:   cfg.InactiveDays,
		TerminatedDays: cfg.TerminatedDays,
		PenaltyRate:    cfg.PenaltyRate,
	}, log)
	guard := idempotency.NewGuard(mysql.NewIdempotencyRepository(gdb), log).WithStaleAfter(cfg.IdempStaleAfter())

	var notifier events.Notifier = notify.NewLog(log)
	if cfg.SMTPEnabled() {
		notifier = notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, log)
	}

	interestUC := interest.NewUsecase(accounts, tx, log)
	activityUC := activity.NewUsecase(members, tx, pol, log)
	penaltyUC := penalty.NewUsecase(loans, tx, pol, log)
	dispatcher := events.NewDispatcher(mysql.NewOutboxRepository(gdb), members, interestUC, activityUC, notifier, log, events.Options{})

	movementUC := movement.NewUsecase(tx, guard, log).WithWake(dispatcher.Wake)
	repaymentUC := repayment.NewUsecase(loans, tx, guard, pol, log).WithWake(dispatcher.Wake)

	sched := scheduler.New(lease.NewLocker(rdb, cfg.LeaseTTL()), log)
	jobs := []struct {
		name, spec string
		run        scheduler.JobFunc
	}{
		{scheduler.JobInterest, cfg.InterestCron, func(ctx context.Context) (any, error) { return interestUC.RunInterestAccrual(ctx) }},
		{scheduler.JobPenalty, cfg.PenaltyCron, func(ctx context.Context) (any, error) { return penaltyUC.RunPenaltyAccrual(ctx) }},
		{scheduler.JobInactivity, cfg.InactivityCron, func(ctx context.Context) (any, error) { return activityUC.RunInactivityScan(ctx) }},
	}
	for _, j := range jobs {
		if err := sched.Register(j.name, j.spec, j.run); err != nil {
			log.WithError(err).WithField("job", j.name).Fatal("register job")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	go dispatcher.Run(ctx, cfg.OutboxPoll())

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			}).Info("request")
			return nil
		},
	}))

	httpadp.Register(e, httpadp.Services{
		Movement:  movementUC,
		Repayment: repaymentUC,
		Loans:     ucLoan.NewUsecase(loans, members, tx, log),
		Approvals: approval.NewUsecase(tx, log),
		Members:   activityUC,
		Jobs:      sched,
	}, rdb, cfg.IdempLockTTL(), log)

	addr := ":" + cfg.AppPort
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	sched.Stop(shutdownCtx)
}
