package solver

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// fakeRedisLock emulates the SetNX and compare-and-delete behaviour the
// locker relies on, keyed on the stored run ID.
type fakeRedisLock struct {
	store map[string]string
}

func newFakeRedisLock() *fakeRedisLock {
	return &fakeRedisLock{store: map[string]string{}}
}

func (f *fakeRedisLock) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if _, held := f.store[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.store[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedisLock) compareAndDelete(keys []string, args ...interface{}) *redis.Cmd {
	if len(keys) == 1 && len(args) == 1 && f.store[keys[0]] == args[0] {
		delete(f.store, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedisLock) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedisLock) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedisLock) EvalRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedisLock) EvalShaRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedisLock) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (f *fakeRedisLock) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestRedisSchoolLockerSerializesPerSchool(t *testing.T) {
	fake := newFakeRedisLock()
	locker := NewRedisSchoolLocker(fake, time.Minute)

	release, err := locker.Acquire(context.Background(), "school-1", "run-a")
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), "school-1", "run-b")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSolveActive))

	// Another school is independent.
	_, err = locker.Acquire(context.Background(), "school-2", "run-c")
	require.NoError(t, err)

	release()
	_, err = locker.Acquire(context.Background(), "school-1", "run-d")
	require.NoError(t, err)
}

func TestRedisSchoolLockerReleaseKeepsNewerLock(t *testing.T) {
	fake := newFakeRedisLock()
	locker := NewRedisSchoolLocker(fake, time.Minute)

	release, err := locker.Acquire(context.Background(), "school-1", "run-a")
	require.NoError(t, err)

	// The TTL expires mid-run and a newer run takes the lock; the stale
	// release must leave it in place.
	key := "timetable:solve-lock:school-1"
	fake.store[key] = "run-b"

	release()
	assert.Equal(t, "run-b", fake.store[key])
}
