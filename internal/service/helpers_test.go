package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_dashboard/internal/hash"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/mykafka"
	"github.com/Skotchmaster/blog_dashboard/internal/repo"
	"github.com/Skotchmaster/blog_dashboard/internal/repo/repotest"
	"github.com/Skotchmaster/blog_dashboard/internal/tokens"
	"github.com/Skotchmaster/blog_dashboard/internal/transport"
)

var testHashParams = hash.Params{Time: 1, MemoryKiB: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

type recordingPublisher struct {
	mu     sync.Mutex
	events []mykafka.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event mykafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// settle waits for queued side effects so their results can be asserted.
func (e *testEnv) settle() {
	e.jobs.Wait()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeIndex struct {
	mu        sync.Mutex
	docs      map[uint]models.PostView
	searchErr error
	searched  int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uint]models.PostView{}}
}

func (f *fakeIndex) IndexPost(_ context.Context, post models.PostView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[post.ID] = post
	return nil
}

func (f *fakeIndex) DeletePost(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) doc(id uint) models.PostView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

func (f *fakeIndex) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []models.PostView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched++
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	out := make([]models.PostView, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return int64(len(out)), out, nil
}

var errIndexDown = errors.New("index down")

type testEnv struct {
	repo   *repo.GormRepo
	auth   *AuthService
	posts  *PostService
	events *recordingPublisher
	jobs   *Background
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: repotest.InitTestDB(t)}
	tk, err := tokens.New([]byte("test-jwt-secret"), "HS256", 30*time.Minute)
	require.NoError(t, err)
	events := &recordingPublisher{}
	jobs := NewBackground(1, 64, time.Second)
	t.Cleanup(jobs.Close)

	return &testEnv{
		repo:   r,
		events: events,
		jobs:   jobs,
		auth: &AuthService{
			Repo:   r,
			Hasher: hash.New(testHashParams, 2),
			Tokens: tk,
			Events: events,
			Jobs:   jobs,
		},
		posts: &PostService{Repo: r, Events: events, Jobs: jobs},
	}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), transport.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return u
}
