package tricount

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
}

func (s *countingSource) Authenticate(context.Context) (Session, error) {
	return Session{Token: "t", UserID: "u"}, nil
}

func (s *countingSource) FetchRegistry(_ context.Context, _ Session, identifier string) ([]byte, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.fail.Load() {
		return nil, errors.New("boom")
	}
	return []byte(identifier), nil
}

func TestCachedSource_FetchesOnce(t *testing.T) {
	src := &countingSource{}
	c := NewCachedSource(src, 0, 0)

	session, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", session.Token)

	for range 3 {
		doc, err := c.FetchRegistry(context.Background(), session, "abc")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(doc))
	}
	assert.Equal(t, int32(1), src.calls.Load())

	_, err = c.FetchRegistry(context.Background(), session, "def")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedSource_FailuresNotCached(t *testing.T) {
	src := &countingSource{}
	src.fail.Store(true)
	c := NewCachedSource(src, 4, time.Minute)

	_, err := c.FetchRegistry(context.Background(), Session{}, "abc")
	require.Error(t, err)

	src.fail.Store(false)
	doc, err := c.FetchRegistry(context.Background(), Session{}, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(doc))
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedSource_ConcurrentShareRequest(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	c := NewCachedSource(src, 4, time.Minute)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := c.FetchRegistry(context.Background(), Session{}, "same")
			assert.NoError(t, err)
			assert.Equal(t, "same", string(doc))
		}()
	}
	// let every goroutine reach the cache before releasing the fetch
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}
