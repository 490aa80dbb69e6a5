package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medform/internal/model"
)

func newTestCache(t *testing.T) (SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionCache(client, time.Hour), mr
}

func TestSessionCache_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	s := model.NewSession("abc", &model.Specification{QuestionnaireID: "q", Version: "1"})
	s.Code = "P-1"
	s.State = model.StateAtQuestion
	s.VisibleIDs = []string{"age", "symptoms"}
	s.CurrentIndex = 1
	s.Answers.Set("age", model.NumberValue(42))
	s.Answers.Set("symptoms", model.ListValue([]string{"a", "b"}))
	s.Answers.Set("smoker", model.BoolValue(false))

	require.NoError(t, c.Set(ctx, s))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, s.Code, got.Code)
	assert.Equal(t, s.State, got.State)
	assert.Equal(t, s.VisibleIDs, got.VisibleIDs)
	assert.Equal(t, 1, got.CurrentIndex)
	assert.Equal(t, s.Answers, got.Answers)

	require.NoError(t, c.Delete(ctx, "abc"))
	_, err = c.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, model.NewSession("old", &model.Specification{})))
	mr.FastForward(2 * time.Hour)

	_, err := c.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionCache_Lock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	release, err := c.Lock(ctx, "abc")
	require.NoError(t, err)

	_, err = c.Lock(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionBusy)

	other, err := c.Lock(ctx, "xyz")
	require.NoError(t, err)
	assert.NoError(t, other())

	assert.NoError(t, release())
	assert.False(t, mr.Exists("session:abc:lock"))

	again, err := c.Lock(ctx, "abc")
	require.NoError(t, err)
	assert.NoError(t, again())
}

func TestSessionCache_LockExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	stale, err := c.Lock(ctx, "abc")
	require.NoError(t, err)
	mr.FastForward(time.Minute)

	fresh, err := c.Lock(ctx, "abc")
	require.NoError(t, err)

	// A holder whose lock expired must not release the new one
	assert.ErrorIs(t, stale(), ErrLockLost)
	assert.True(t, mr.Exists("session:abc:lock"))
	assert.NoError(t, fresh())
}
