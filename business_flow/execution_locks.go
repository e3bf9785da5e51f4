package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/textpulse/campaign-console/utils"
)

// executionLocker enforces at most one in-flight send per campaign. With a
// redis client the lock is a SETNX key with a TTL so a crashed process cannot
// hold it forever; without one an in-process table is used.
type executionLocker struct {
	redisClient *redis.Client

	mu   sync.Mutex
	held map[uint]struct{}
}

func newExecutionLocker(redisClient *redis.Client) *executionLocker {
	return &executionLocker{
		redisClient: redisClient,
		held:        make(map[uint]struct{}),
	}
}

// acquire takes the send lock for a campaign. It returns a release function,
// or ErrExecutionInProgress when the lock is already held.
func (l *executionLocker) acquire(ctx context.Context, campaignID uint) (func(), error) {
	if l.redisClient != nil {
		key := fmt.Sprintf("%s:%d", utils.ExecutionLockKeyPrefix, campaignID)

		acquired, err := l.redisClient.SetNX(ctx, key, "1", utils.ExecutionLockTTL).Result()
		if err == nil {
			if !acquired {
				return nil, ErrExecutionInProgress
			}
			return func() {
				l.redisClient.Del(context.Background(), key)
			}, nil
		}
		// Redis unreachable, fall through to the in-process table
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[campaignID]; ok {
		return nil, ErrExecutionInProgress
	}
	l.held[campaignID] = struct{}{}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, campaignID)
	}, nil
}
