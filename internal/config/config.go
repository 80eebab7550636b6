package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort  string
	LogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	// in-flight guard held by the idempotency middleware while a request runs
	IdempLockSecs int
	// age after which an unfinished idempotency record may be taken over
	IdempStaleSecs int

	InactiveDays   int
	TerminatedDays int
	PenaltyRate    decimal.Decimal

	InterestCron   string
	PenaltyCron    string
	InactivityCron string
	LeaseTTLSecs   int
	OutboxPollSecs int

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "coop"),
		MySQLUser: getenv("MYSQL_USER", "coop"),
		MySQLPass: getenv("MYSQL_PASS", "coop"),

		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:        getint("REDIS_DB", 0),
		IdempLockSecs:  getint("IDEMPOTENCY_LOCK_SECONDS", 60),
		IdempStaleSecs: getint("IDEMPOTENCY_STALE_SECONDS", 300),

		InactiveDays:   getint("INACTIVE_DAYS", 90),
		TerminatedDays: getint("TERMINATED_DAYS", 365),
		PenaltyRate:    decimal.NewFromFloat(5),

		InterestCron:   getenv("INTEREST_CRON", "0 1 1 * *"),
		PenaltyCron:    getenv("PENALTY_CRON", "0 2 * * *"),
		InactivityCron: getenv("INACTIVITY_CRON", "0 3 * * *"),
		LeaseTTLSecs:   getint("JOB_LEASE_TTL_SECONDS", 3600),
		OutboxPollSecs: getint("OUTBOX_POLL_SECONDS", 5),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenv("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getenv("SMTP_FROM", "noreply@coop.local"),
	}
	if v := os.Getenv("PENALTY_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			c.PenaltyRate = d
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.InactiveDays <= 0 || c.TerminatedDays <= c.InactiveDays {
		return fmt.Errorf("INACTIVE_DAYS (%d) must be positive and below TERMINATED_DAYS (%d)", c.InactiveDays, c.TerminatedDays)
	}
	if c.PenaltyRate.IsNegative() {
		return errors.New("PENALTY_RATE must not be negative")
	}
	if c.IdempStaleSecs < c.IdempLockSecs {
		return fmt.Errorf("IDEMPOTENCY_STALE_SECONDS (%d) must not be below IDEMPOTENCY_LOCK_SECONDS (%d)", c.IdempStaleSecs, c.IdempLockSecs)
	}
	if c.LeaseTTLSecs <= 0 || c.OutboxPollSecs <= 0 {
		return errors.New("JOB_LEASE_TTL_SECONDS and OUTBOX_POLL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATE/DATETIME; loc=UTC keeps due dates stable
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

func (c *Config) SMTPAddr() string { return net.JoinHostPort(c.SMTPHost, c.SMTPPort) }

func (c *Config) IdempLockTTL() time.Duration { return time.Duration(c.IdempLockSecs) * time.Second }

func (c *Config) IdempStaleAfter() time.Duration {
	return time.Duration(c.IdempStaleSecs) * time.Second
}

func (c *Config) LeaseTTL() time.Duration { return time.Duration(c.LeaseTTLSecs) * time.Second }

func (c *Config) OutboxPoll() time.Duration { return time.Duration(c.OutboxPollSecs) * time.Second }
