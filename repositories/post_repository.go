package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/utils"
)

// PostRepository abstracts persistence of posts.
// FindByID, Update and Delete return a NotFound AppError for unknown ids; any
// other failure is a StorageFailure AppError.
type PostRepository interface {
	FindAll(ctx context.Context) ([]models.Post, error)
	FindBySearchTerm(ctx context.Context, term string) ([]models.Post, error)
	FindByID(ctx context.Context, id uint) (models.Post, error)
	Create(ctx context.Context, post models.Post) (models.Post, error)
	Update(ctx context.Context, id uint, post models.Post) (models.Post, error)
	Delete(ctx context.Context, id uint) error
}

// GormPostRepository stores posts through gorm.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a repository backed by db.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&posts).Error; err != nil {
		return nil, utils.StorageFailure("list posts", err)
	}
	return posts, nil
}

// FindBySearchTerm returns posts whose content contains term.
func (r *GormPostRepository) FindBySearchTerm(ctx context.Context, term string) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Where("content LIKE ? ESCAPE '!'", "%"+escapeLike(term)+"%").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, utils.StorageFailure("search posts", err)
	}
	return posts, nil
}

func (r *GormPostRepository) FindByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, utils.NotFound("post")
		}
		return models.Post{}, utils.StorageFailure("load post", err)
	}
	return post, nil
}

func (r *GormPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	post.ID = 0
	if err := r.db.WithContext(ctx).Create(&post).Error; err != nil {
		return models.Post{}, utils.StorageFailure("create post", err)
	}
	return post, nil
}

// Update overwrites title and content of the post with the given id.
// Any ID carried by post is ignored.
func (r *GormPostRepository) Update(ctx context.Context, id uint, post models.Post) (models.Post, error) {
	var updated models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		updated.Title = post.Title
		updated.Content = post.Content
		return tx.Save(&updated).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, utils.NotFound("post")
		}
		return models.Post{}, utils.StorageFailure("update post", err)
	}
	return updated, nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return utils.StorageFailure("delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFound("post")
	}
	return nil
}

// escapeLike neutralizes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '!':
			out = append(out, '!')
		}
		out = append(out, r)
	}
	return string(out)
}
