package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_dashboard/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserAlreadyExist = errors.New("user already exist")
)

func (r *GormRepo) findUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

// UserAvailable reports ErrUsernameTaken or ErrEmailTaken, checking the
// username first.
func (r *GormRepo) UserAvailable(ctx context.Context, username, email string) error {
	if _, err := r.FindUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if _, err := r.FindUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	return nil
}

// CreateUser inserts u. The unique indexes are authoritative: a failed
// insert is resolved to ErrUsernameTaken or ErrEmailTaken when one of them
// now exists, and a bare duplicate key comes back as ErrUserAlreadyExist.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		taken := r.UserAvailable(ctx, u.Username, u.Email)
		if errors.Is(taken, ErrUsernameTaken) || errors.Is(taken, ErrEmailTaken) {
			return taken
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
