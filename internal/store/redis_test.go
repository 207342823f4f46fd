package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisStore(t *testing.T) {
	client := newFakeRedis()
	s, err := NewRedis(client, "", DefaultRetention)
	require.NoError(t, err)

	storeContract(t, s)

	assert.Contains(t, client.data, "screening:session:s1")
	assert.Equal(t, DefaultRetention, client.ttls["screening:session:s1"])
}

func TestRedisStoreErrors(t *testing.T) {
	client := newFakeRedis()
	s, err := NewRedis(client, "test:", 0)
	require.NoError(t, err)

	client.failErr = errors.New("dial tcp: connection refused")
	require.ErrorIs(t, s.Save(context.Background(), sampleRecord("s1")), ErrUnavailable)

	_, err = s.Load(context.Background(), "s1")
	require.ErrorIs(t, err, ErrUnavailable)

	client.failErr = context.DeadlineExceeded
	require.ErrorIs(t, s.Save(context.Background(), sampleRecord("s1")), ErrTimeout)

	client.failErr = nil
	client.data["test:broken"] = "{not json"
	_, err = s.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(nil, "", 0)
	require.Error(t, err)
}
