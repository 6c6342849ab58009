package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/mykafka"
	"github.com/Skotchmaster/blog_dashboard/internal/repo"
	"github.com/Skotchmaster/blog_dashboard/internal/transport"
	"github.com/Skotchmaster/blog_dashboard/internal/util"
)

// SearchIndex mirrors posts into a full-text engine. Implemented by
// es.PostIndex.
type SearchIndex interface {
	IndexPost(ctx context.Context, post models.PostView) error
	DeletePost(ctx context.Context, id uint) error
	Search(ctx context.Context, q string, from, size int) (int64, []models.PostView, error)
}

type PostService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
	// Index is optional; without it search runs against the database.
	Index SearchIndex
	// Jobs runs publishing and index sync; nil runs them inline.
	Jobs *Background
}

// authorize is the single ownership rule for every mutation.
func authorize(post *models.Post, requesterID uint) error {
	if post.AuthorID != requesterID {
		return fmt.Errorf("%w: post %d belongs to user %d", ErrForbidden, post.ID, post.AuthorID)
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, author *models.User, req transport.PostRequest) (*models.PostView, error) {
	l := logging.FromContext(ctx).With("svc", "post.create", "user_id", author.ID)

	if err := validatePost(&req); err != nil {
		l.Warn("create_post_error", "status", 400, "reason", "validation failed", "error", err)
		return nil, err
	}

	post := &models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: author.ID,
	}
	if err := s.Repo.CreatePost(ctx, post); err != nil {
		l.Error("create_post_error", "status", 500, "reason", "cannot create post", "error", err)
		return nil, err
	}

	view := post.View(author.Username)
	s.afterWrite(ctx, mykafka.PostCreated, view)
	l.Info("post_created", "post_id", post.ID)
	return &view, nil
}

func (s *PostService) List(ctx context.Context) ([]models.PostView, error) {
	return s.Repo.ListPosts(ctx)
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID uint) ([]models.PostView, error) {
	return s.Repo.ListPostsByAuthor(ctx, authorID)
}

func (s *PostService) load(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.Repo.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, repo.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return post, nil
}

// Update replaces title and content. The author and creation time never
// change.
func (s *PostService) Update(ctx context.Context, postID uint, requester *models.User, req transport.PostRequest) (*models.PostView, error) {
	l := logging.FromContext(ctx).With("svc", "post.update", "post_id", postID, "user_id", requester.ID)

	if err := validatePost(&req); err != nil {
		l.Warn("update_post_error", "status", 400, "reason", "validation failed", "error", err)
		return nil, err
	}

	post, err := s.load(ctx, postID)
	if err != nil {
		l.Warn("update_post_error", "reason", "cannot load post", "error", err)
		return nil, err
	}
	if err := authorize(post, requester.ID); err != nil {
		l.Warn("update_post_error", "status", 403, "reason", "not the author")
		return nil, err
	}

	if err := s.Repo.UpdatePostContent(ctx, post, req.Title, req.Content); err != nil {
		l.Error("update_post_error", "status", 500, "reason", "cannot update post", "error", err)
		return nil, err
	}

	view := post.View(requester.Username)
	s.afterWrite(ctx, mykafka.PostUpdated, view)
	l.Info("post_updated")
	return &view, nil
}

func (s *PostService) Delete(ctx context.Context, postID, requesterID uint) error {
	l := logging.FromContext(ctx).With("svc", "post.delete", "post_id", postID, "user_id", requesterID)

	post, err := s.load(ctx, postID)
	if err != nil {
		l.Warn("delete_post_error", "reason", "cannot load post", "error", err)
		return err
	}
	if err := authorize(post, requesterID); err != nil {
		l.Warn("delete_post_error", "status", 403, "reason", "not the author")
		return err
	}

	if err := s.Repo.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, repo.ErrPostNotFound) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		l.Error("delete_post_error", "status", 500, "reason", "cannot delete post", "error", err)
		return err
	}

	s.afterDelete(ctx, post)
	l.Info("post_deleted")
	return nil
}

// Search matches q against title and content. page is 1-based; both are
// clamped by util.NewPage.
func (s *PostService) Search(ctx context.Context, q string, page, size int) (*transport.SearchResult, error) {
	l := logging.FromContext(ctx).With("svc", "post.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, newValidationError("q", "search query is required")
	}
	p := util.NewPage(page, size)

	var (
		total int64
		posts []models.PostView
		err   error
	)
	if s.Index != nil {
		total, posts, err = s.Index.Search(ctx, q, p.Offset(), p.Size)
		if err != nil {
			l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
		}
	}
	if s.Index == nil || err != nil {
		total, posts, err = s.Repo.SearchPosts(ctx, q, p.Offset(), p.Size)
		if err != nil {
			l.Error("search_error", "status", 500, "error", err)
			return nil, err
		}
	}
	if posts == nil {
		posts = []models.PostView{}
	}

	return &transport.SearchResult{
		Data: posts,
		Meta: transport.SearchMeta{Total: total, Page: p.Number, Size: p.Size},
	}, nil
}

func (s *PostService) afterWrite(ctx context.Context, eventType string, view models.PostView) {
	publish(ctx, s.Jobs, s.Events, mykafka.Event{
		Type:     eventType,
		UserID:   view.AuthorID,
		Username: view.AuthorName,
		PostID:   view.ID,
		Title:    view.Title,
	})

	if s.Index == nil {
		return
	}
	s.Jobs.Submit(ctx, uint64(view.ID), "index_post", func(ctx context.Context) error {
		if err := s.Index.IndexPost(ctx, view); err != nil {
			return fmt.Errorf("post %d: %w", view.ID, err)
		}
		return nil
	})
}

func (s *PostService) afterDelete(ctx context.Context, post *models.Post) {
	publish(ctx, s.Jobs, s.Events, mykafka.Event{
		Type:   mykafka.PostDeleted,
		UserID: post.AuthorID,
		PostID: post.ID,
		Title:  post.Title,
	})

	if s.Index == nil {
		return
	}
	id := post.ID
	s.Jobs.Submit(ctx, uint64(id), "unindex_post", func(ctx context.Context) error {
		if err := s.Index.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("post %d: %w", id, err)
		}
		return nil
	})
}
