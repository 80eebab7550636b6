package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"coop-ledger/internal/apperr"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Allowed client/server clock skew for X-Request-At.
const maxClockSkew = 10 * time.Minute

func reject(c echo.Context, kind apperr.Kind, msg string) error {
	return c.JSON(apperr.HTTPStatus(kind), apperr.New(kind, "%s", msg))
}

// Idempotency validates the Idempotency-Key / X-Caller-Id / X-Request-At headers
// on mutating requests and holds a short Redis lock while the request runs, so a
// retry racing the original gets 409 instead of queuing on the database.
// Replay of completed requests is handled by the durable guard in the use cases.
// With required=false a request without a key passes through unguarded.
func Idempotency(rdb redis.UniversalClient, lockTTL time.Duration, required bool, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			key := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if key == "" {
				if required {
					return reject(c, apperr.KindBadRequest, "missing "+HeaderIdempotencyKey)
				}
				return next(c)
			}
			if !validKey(key) {
				return reject(c, apperr.KindBadRequest, "invalid "+HeaderIdempotencyKey+" format")
			}
			key = strings.ToLower(key)

			caller := strings.TrimSpace(req.Header.Get(HeaderCallerID))
			if !reCaller.MatchString(caller) {
				return reject(c, apperr.KindBadRequest, "missing or invalid "+HeaderCallerID)
			}

			at, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, apperr.KindBadRequest, err.Error())
			}
			now := nowUTC()
			if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
				return reject(c, apperr.KindBadRequest, HeaderRequestAt+" too skewed")
			}

			lock := inflightKey(req.Method, c.Path(), caller, key)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			ok, err := rdb.SetNX(ctx, lock, now.UnixMilli(), lockTTL).Result()
			cancel()
			if err != nil {
				log.WithError(err).Warn("idempotency lock unavailable, relying on durable guard")
			} else if !ok {
				return reject(c, apperr.KindInProgress, "request with this "+HeaderIdempotencyKey+" is already in progress")
			}

			c.Set(ctxKeyIdempotency, key)
			c.Set(ctxKeyCaller, caller)
			defer func() {
				if ok {
					_ = rdb.Del(context.Background(), lock).Err()
				}
			}()
			return next(c)
		}
	}
}
