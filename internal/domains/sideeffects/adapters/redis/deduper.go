package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

const DefaultTTL = 24 * time.Hour

var _ ports.Deduper = (*Deduper)(nil)

// Deduper records side-effect keys with SET NX so that a relay replaying an
// event after a lost lease does not repeat its effects.
type Deduper struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewDeduper(rdb goredis.Cmdable, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Deduper{rdb: rdb, ttl: ttl}
}

// NewClient returns a client for addr; callers own Close.
func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func (d *Deduper) Seen(ctx context.Context, key string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, errors.New("redis deduper not configured")
	}
	ok, err := d.rdb.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
