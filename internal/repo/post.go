package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_dashboard/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

const postViewColumns = "posts.id, posts.title, posts.content, posts.author_id, users.username AS author_name, posts.created_at"

func (r *GormRepo) postViews(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&models.Post{}).
		Select(postViewColumns).
		Joins("JOIN users ON users.id = posts.author_id")
}

func (r *GormRepo) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.DB.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *GormRepo) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *GormRepo) GetPostView(ctx context.Context, id uint) (*models.PostView, error) {
	var views []models.PostView
	if err := r.postViews(ctx).Where("posts.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("get post view: %w", err)
	}
	if len(views) == 0 {
		return nil, ErrPostNotFound
	}
	return &views[0], nil
}

// ListPosts returns every post, newest first.
func (r *GormRepo) ListPosts(ctx context.Context) ([]models.PostView, error) {
	views := make([]models.PostView, 0)
	if err := r.postViews(ctx).
		Order("posts.created_at DESC, posts.id DESC").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return views, nil
}

func (r *GormRepo) ListPostsByAuthor(ctx context.Context, authorID uint) ([]models.PostView, error) {
	views := make([]models.PostView, 0)
	if err := r.postViews(ctx).
		Where("posts.author_id = ?", authorID).
		Order("posts.created_at DESC, posts.id DESC").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return views, nil
}

// UpdatePostContent overwrites title and content only; author and
// creation time are never touched.
func (r *GormRepo) UpdatePostContent(ctx context.Context, post *models.Post, title, content string) error {
	if err := r.DB.WithContext(ctx).
		Model(post).
		Updates(map[string]any{"title": title, "content": content}).Error; err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	post.Title = title
	post.Content = content
	return nil
}

func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func escapeLike(q string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(q)
}

// SearchPosts is a case-insensitive substring match on title or content.
func (r *GormRepo) SearchPosts(ctx context.Context, q string, offset, limit int) (int64, []models.PostView, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "(LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(posts.content) LIKE ? ESCAPE '!')"

	var total int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Post{}).
		Where(where, pattern, pattern).
		Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count search: %w", err)
	}

	views := make([]models.PostView, 0, limit)
	if err := r.postViews(ctx).
		Where(where, pattern, pattern).
		Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&views).Error; err != nil {
		return 0, nil, fmt.Errorf("search posts: %w", err)
	}
	return total, views, nil
}
