package middleware

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderCallerID       = "X-Caller-Id"
	HeaderRequestAt      = "X-Request-At"

	ctxKeyIdempotency = "idempotency_key"
	ctxKeyCaller      = "caller_id"
)

func nowUTC() time.Time { return time.Now().UTC() }

func inflightKey(method, path, callerID, key string) string {
	return "coop-ledger:inflight:" + strings.ToLower(method) + ":" + path + ":" + callerID + ":" + key
}

var (
	reUUID   = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32  = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reCaller = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)
)

func validKey(id string) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with a zone.
// Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 { // ms
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// IdempotencyKey returns the validated key for this request, or "".
func IdempotencyKey(c echo.Context) string {
	v, _ := c.Get(ctxKeyIdempotency).(string)
	return v
}

// CallerID returns the validated caller for this request, or "".
func CallerID(c echo.Context) string {
	v, _ := c.Get(ctxKeyCaller).(string)
	return v
}
