package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/blog_dashboard/internal/models"
)

// PostIndex mirrors post views into an Elasticsearch index for search.
type PostIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewPostIndex(client *elasticsearch.Client, index string) *PostIndex {
	return &PostIndex{client: client, index: index}
}

func (p *PostIndex) IndexPost(ctx context.Context, post models.PostView) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(post); err != nil {
		return fmt.Errorf("encode post: %w", err)
	}

	res, err := p.client.Index(
		p.index,
		&buf,
		p.client.Index.WithContext(ctx),
		p.client.Index.WithDocumentID(strconv.FormatUint(uint64(post.ID), 10)),
		p.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index post: %w", err)
	}
	defer res.Body.Close()
	return responseError("index post", res)
}

func (p *PostIndex) DeletePost(ctx context.Context, id uint) error {
	res, err := p.client.Delete(
		p.index,
		strconv.FormatUint(uint64(id), 10),
		p.client.Delete.WithContext(ctx),
		p.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError("delete post", res)
}

func (p *PostIndex) Search(ctx context.Context, q string, from, size int) (int64, []models.PostView, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "content"},
				"fuzziness": "AUTO",
			},
		},
		"sort": []any{"_score", map[string]any{"created_at": "desc"}},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search posts: %w", err)
	}
	defer res.Body.Close()
	if err := responseError("search posts", res); err != nil {
		return 0, nil, err
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.PostView `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	posts := make([]models.PostView, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		posts[i] = hit.Source
	}
	return r.Hits.Total.Value, posts, nil
}

func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s: %s: %s", op, res.Status(), body)
}
