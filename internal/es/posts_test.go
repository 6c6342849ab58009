package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_dashboard/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	status, resp := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp)
}

func (f *fakeCluster) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeCluster) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestIndex(t *testing.T, cluster *fakeCluster) *PostIndex {
	t.Helper()

	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	cluster.respond(0, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	cluster.respond(0, "")

	return NewPostIndex(client, "posts")
}

func TestPostIndex_IndexPost(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)
	cluster.respond(http.StatusCreated, `{"result":"created"}`)

	err := idx.IndexPost(context.Background(), models.PostView{ID: 5, Title: "Hi", Content: "World", AuthorName: "alice"})
	require.NoError(t, err)

	req := cluster.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/posts/_doc/5", req.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Hi", doc["title"])
	assert.Equal(t, "alice", doc["author_name"])
}

func TestPostIndex_DeletePost_MissingIsFine(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)
	cluster.respond(http.StatusNotFound, `{"result":"not_found"}`)

	require.NoError(t, idx.DeletePost(context.Background(), 9))

	req := cluster.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/posts/_doc/9", req.Path)
}

func TestPostIndex_Search(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)
	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cluster.respond(0, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":3,"title":"Go","content":"gophers","author_id":1,"author_name":"alice","created_at":"2025-01-01T10:00:00Z"}}]}}`)

	total, posts, err := idx.Search(context.Background(), "gopher", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	assert.EqualValues(t, 3, posts[0].ID)
	assert.Equal(t, "alice", posts[0].AuthorName)
	assert.True(t, posts[0].CreatedAt.Equal(created))

	req := cluster.last()
	assert.Equal(t, "/posts/_search", req.Path)
	assert.Contains(t, req.Body, `"multi_match"`)
	assert.Contains(t, req.Body, `"gopher"`)
}

func TestPostIndex_Search_ClusterError(t *testing.T) {
	t.Parallel()

	cluster := &fakeCluster{}
	idx := newTestIndex(t, cluster)
	cluster.respond(http.StatusInternalServerError, `{"error":"boom"}`)

	_, _, err := idx.Search(context.Background(), "x", 0, 10)
	require.Error(t, err)
}
