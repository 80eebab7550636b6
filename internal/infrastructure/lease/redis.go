package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lease.
var ErrHeld = errors.New("lease held by another instance")

const keyPrefix = "coop-ledger:lease:"

// release deletes the key only if it still belongs to the caller.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out named, expiring leases so a batch job runs on one instance at a time.
type Locker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewLocker(rdb redis.UniversalClient, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

type Lease struct {
	Name   string
	Holder string
	l      *Locker
}

// Acquire takes the lease for name or returns ErrHeld.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lease, error) {
	holder := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, keyPrefix+name, holder, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lease{Name: name, Holder: holder, l: l}, nil
}

// Release gives the lease back. Releasing an expired or stolen lease is a no-op.
func (ls *Lease) Release(ctx context.Context) error {
	if err := release.Run(ctx, ls.l.rdb, []string{keyPrefix + ls.Name}, ls.Holder).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lease %s: %w", ls.Name, err)
	}
	return nil
}
