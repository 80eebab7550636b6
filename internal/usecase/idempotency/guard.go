// Package idempotency makes keyed money-moving requests run at most once.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"coop-ledger/internal/apperr"
	idemDomain "coop-ledger/internal/domain/idempotency"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultStaleAfter is how long an unfinished record blocks its key before a
// retry may take it over. It must outlast the slowest request.
const DefaultStaleAfter = 5 * time.Minute

type Guard struct {
	repo       idemDomain.Repository
	log        *logrus.Logger
	now        func() time.Time
	staleAfter time.Duration
}

func NewGuard(repo idemDomain.Repository, log *logrus.Logger) *Guard {
	return &Guard{
		repo:       repo,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		staleAfter: DefaultStaleAfter,
	}
}

func (g *Guard) WithClock(now func() time.Time) *Guard { g.now = now; return g }

func (g *Guard) WithStaleAfter(d time.Duration) *Guard {
	if d > 0 {
		g.staleAfter = d
	}
	return g
}

// Request identifies one keyed call. Body is the operation input; it is
// JSON-encoded for the fingerprint.
type Request struct {
	Key       string
	CallerID  string
	Operation string
	Body      any
}

// Fingerprint binds the key to who sent it, what they asked for and the payload.
func Fingerprint(key, callerID, operation string, body []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(key), []byte(callerID), []byte(operation), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Do runs fn once per key and replays its outcome for later calls carrying the
// same fingerprint. Internal failures and version conflicts release the key so
// the client may retry. An unfinished claim older than the stale window is
// taken over by the next identical request.
func Do[T any](ctx context.Context, g *Guard, req Request, fn func(ctx context.Context) (*T, error)) (*T, error) {
	if req.Key == "" {
		return nil, apperr.New(apperr.KindBadRequest, "idempotency key is required")
	}
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, err, "request body is not serializable")
	}
	hash := Fingerprint(req.Key, req.CallerID, req.Operation, body)

	rec := &idemDomain.Record{Key: req.Key, CallerID: req.CallerID, Operation: req.Operation, RequestHash: hash, CreatedAt: g.now()}
	if createErr := g.repo.Create(ctx, rec); createErr != nil {
		// lost the unique-key race or the key was used before
		existing, err := g.repo.GetByKey(ctx, req.Key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindInternal, createErr, "claim idempotency key")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "load idempotency record")
		}
		if g.stale(existing, hash) {
			now := g.now()
			won, err := g.repo.Reclaim(ctx, req.Key, now.Add(-g.staleAfter), now)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, err, "reclaim idempotency key")
			}
			if won {
				g.log.WithFields(logrus.Fields{
					"idempotency_key": req.Key,
					"operation":       req.Operation,
					"claimed_at":      existing.CreatedAt.Format(time.RFC3339),
				}).Warn("reclaimed stale idempotency key")
				return run(ctx, g, req, fn)
			}
		}
		return replay[T](existing, hash)
	}

	return run(ctx, g, req, fn)
}

// run executes fn for a claimed key and stores its outcome. The outcome is
// written on a context detached from the caller: once fn has moved money, a
// client hanging up must not leave the key unfinished.
func run[T any](ctx context.Context, g *Guard, req Request, fn func(ctx context.Context) (*T, error)) (*T, error) {
	out, runErr := fn(ctx)
	done := context.WithoutCancel(ctx)
	kind := apperr.KindOf(runErr)
	code := apperr.HTTPStatus(kind)
	entry := g.log.WithFields(logrus.Fields{"idempotency_key": req.Key, "operation": req.Operation})

	// nothing was written; let the client retry under the same key
	if code >= http.StatusInternalServerError || kind == apperr.KindConflict {
		if err := g.repo.Delete(done, req.Key); err != nil {
			entry.WithError(err).Warn("release idempotency key")
		}
		return nil, runErr
	}

	var (
		payload []byte
		err     error
	)
	if runErr != nil {
		var e *apperr.Error
		errors.As(runErr, &e)
		payload, err = json.Marshal(e)
	} else {
		payload, err = json.Marshal(out)
	}
	if err == nil {
		err = g.repo.Complete(done, req.Key, code, payload)
	}
	if err != nil {
		// the key stays unfinished until it goes stale
		entry.WithError(err).Error("cache idempotent response")
	}
	return out, runErr
}

// stale reports whether rec is an unfinished claim old enough to take over.
func (g *Guard) stale(rec *idemDomain.Record, hash string) bool {
	return rec.RequestHash == hash && rec.InProgress() && rec.CreatedAt.Before(g.now().Add(-g.staleAfter))
}

func replay[T any](rec *idemDomain.Record, hash string) (*T, error) {
	if rec.RequestHash != hash {
		return nil, apperr.New(apperr.KindBadRequest, "idempotency key reused with a different payload")
	}
	if rec.InProgress() {
		return nil, apperr.New(apperr.KindInProgress, "request with this idempotency key is still in progress")
	}
	if rec.StatusCode >= http.StatusBadRequest {
		e, err := apperr.Decode(rec.Body)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "decode cached error")
		}
		return nil, e
	}
	var out T
	if err := json.Unmarshal(rec.Body, &out); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "decode cached response")
	}
	return &out, nil
}
