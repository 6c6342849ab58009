package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/mykafka"
	"github.com/Skotchmaster/blog_dashboard/internal/transport"
)

// blockingPublisher holds every publish until release is closed, like a
// broker that accepts connections but never acks.
type blockingPublisher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	done    atomic.Int32
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (p *blockingPublisher) PublishEvent(ctx context.Context, _ string, _ mykafka.Event) error {
	select {
	case p.started <- struct{}{}:
	default:
	}
	select {
	case <-p.release:
		p.done.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *blockingPublisher) Close() error { return nil }

func (p *blockingPublisher) unblock() { p.once.Do(func() { close(p.release) }) }

func TestAuthService_Login_DoesNotWaitForPublisher(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	pub := newBlockingPublisher()
	jobs := NewBackground(1, 16, time.Minute)
	t.Cleanup(jobs.Close)
	t.Cleanup(pub.unblock)
	env.auth.Events, env.auth.Jobs = pub, jobs

	env.register(t, "alice")
	<-pub.started

	done := make(chan error, 1)
	go func() {
		_, err := env.auth.Login(context.Background(), transport.LoginRequest{Username: "alice", Password: "secret123"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("login blocked on the event publisher")
	}
	assert.Zero(t, pub.done.Load())

	pub.unblock()
	jobs.Wait()
	assert.EqualValues(t, 2, pub.done.Load())
}

func TestPostService_Create_DoesNotWaitForIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.settle()

	idx := &blockingIndex{fakeIndex: newFakeIndex(), release: make(chan struct{})}
	jobs := NewBackground(1, 16, time.Minute)
	t.Cleanup(jobs.Close)
	t.Cleanup(func() { close(idx.release) })
	env.posts.Index, env.posts.Jobs = idx, jobs

	done := make(chan error, 1)
	go func() {
		_, err := env.posts.Create(context.Background(), alice, transport.PostRequest{Title: "Hi", Content: "World"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("create blocked on the search index")
	}
	assert.Zero(t, idx.count())
}

type blockingIndex struct {
	*fakeIndex
	release chan struct{}
}

func (b *blockingIndex) IndexPost(ctx context.Context, post models.PostView) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.fakeIndex.IndexPost(ctx, post)
}

func TestBackground_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.New(&buf, "debug"))
	b := NewBackground(1, 1, time.Second)
	t.Cleanup(b.Close)

	var (
		mu  sync.Mutex
		ran []string
	)
	started := make(chan struct{})
	release := make(chan struct{})
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		}
	}

	require.True(t, b.Submit(ctx, 0, "first", func(context.Context) error {
		close(started)
		<-release
		return record("first")(ctx)
	}))
	<-started
	require.True(t, b.Submit(ctx, 0, "second", record("second")))
	assert.False(t, b.Submit(ctx, 0, "third", record("third")))

	close(release)
	b.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, ran)
	assert.Contains(t, buf.String(), "background_job_dropped")
	assert.Contains(t, buf.String(), "queue full")
}

func TestBackground_KeepsOrderPerKey(t *testing.T) {
	t.Parallel()

	b := NewBackground(4, 128, time.Second)
	t.Cleanup(b.Close)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 100 {
		require.True(t, b.Submit(context.Background(), 7, "append", func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
			return nil
		}))
	}
	b.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestBackground_JobOutlivesRequestCancel(t *testing.T) {
	t.Parallel()

	b := NewBackground(1, 4, time.Second)
	t.Cleanup(b.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var (
		jobErr      error
		hasDeadline bool
	)
	require.True(t, b.Submit(ctx, 1, "check", func(ctx context.Context) error {
		jobErr = ctx.Err()
		_, hasDeadline = ctx.Deadline()
		return nil
	}))
	b.Wait()

	assert.NoError(t, jobErr)
	assert.True(t, hasDeadline)
}

func TestBackground_LogsFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.New(&buf, "debug"))
	b := NewBackground(1, 4, time.Second)

	require.True(t, b.Submit(ctx, 1, "publish_event", func(context.Context) error {
		return errors.New("broker down")
	}))
	b.Close()

	assert.Contains(t, buf.String(), "publish_event_failed")
	assert.Contains(t, buf.String(), "broker down")
}

func TestBackground_CloseDrainsAndRejects(t *testing.T) {
	t.Parallel()

	b := NewBackground(2, 16, time.Second)
	var n atomic.Int32
	for i := range 10 {
		require.True(t, b.Submit(context.Background(), uint64(i), "count", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	b.Close()
	assert.EqualValues(t, 10, n.Load())

	assert.False(t, b.Submit(context.Background(), 0, "late", func(context.Context) error {
		n.Add(1)
		return nil
	}))
	b.Close()
	assert.EqualValues(t, 10, n.Load())
}

func TestBackground_NilRunsInline(t *testing.T) {
	t.Parallel()

	var b *Background
	ran := false
	assert.True(t, b.Submit(context.Background(), 0, "inline", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	b.Wait()
	b.Close()
}
