package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// SchoolLocker serializes solve runs per school. Acquire returns a
// release func on success and ErrSolveActive when another run holds the
// lock.
type SchoolLocker interface {
	Acquire(ctx context.Context, schoolID, runID string) (func(), error)
}

// redisLockClient is the slice of the Redis API the locker needs.
// *redis.Client satisfies it.
type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// RedisSchoolLocker coordinates across processes with a SET NX key. The
// TTL bounds how long a crashed run can hold the lock.
type RedisSchoolLocker struct {
	client redisLockClient
	ttl    time.Duration
}

// releaseScript deletes the lock only while it still belongs to the run,
// so an expired key re-acquired by a newer run is never removed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisSchoolLocker(client redisLockClient, ttl time.Duration) *RedisSchoolLocker {
	return &RedisSchoolLocker{client: client, ttl: ttl}
}

func (l *RedisSchoolLocker) Acquire(ctx context.Context, schoolID, runID string) (func(), error) {
	key := fmt.Sprintf("timetable:solve-lock:%s", schoolID)
	ok, err := l.client.SetNX(ctx, key, runID, l.ttl).Result()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire solve lock")
	}
	if !ok {
		return nil, appErrors.ErrSolveActive
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, runID).Err()
	}
	return release, nil
}

// LocalSchoolLocker is the single-process fallback used when Redis is
// not configured.
type LocalSchoolLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalSchoolLocker() *LocalSchoolLocker {
	return &LocalSchoolLocker{held: make(map[string]struct{})}
}

func (l *LocalSchoolLocker) Acquire(_ context.Context, schoolID, _ string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[schoolID]; busy {
		return nil, appErrors.ErrSolveActive
	}
	l.held[schoolID] = struct{}{}
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, schoolID)
	}
	return release, nil
}
