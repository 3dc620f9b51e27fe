package repositories

import (
	"context"
	"strconv"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/utils"
)

const (
	cacheKeyList   = "cache:posts:list"
	cacheKeyDetail = "cache:post:detail:"
)

// CachedPostRepository is a read-through Redis cache in front of another
// PostRepository. Search results are not cached to avoid key explosion.
type CachedPostRepository struct {
	inner PostRepository
	cache *utils.Cache
}

// NewCachedPostRepository wraps inner with cache.
func NewCachedPostRepository(inner PostRepository, cache *utils.Cache) *CachedPostRepository {
	return &CachedPostRepository{inner: inner, cache: cache}
}

func detailKey(id uint) string {
	return cacheKeyDetail + strconv.FormatUint(uint64(id), 10)
}

func (r *CachedPostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if r.cache.GetJSON(ctx, cacheKeyList, &posts) {
		return posts, nil
	}
	posts, err := r.inner.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetJSON(ctx, cacheKeyList, posts)
	return posts, nil
}

func (r *CachedPostRepository) FindBySearchTerm(ctx context.Context, term string) ([]models.Post, error) {
	return r.inner.FindBySearchTerm(ctx, term)
}

func (r *CachedPostRepository) FindByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if r.cache.GetJSON(ctx, detailKey(id), &post) {
		return post, nil
	}
	post, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	r.cache.SetJSON(ctx, detailKey(id), post)
	return post, nil
}

func (r *CachedPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	created, err := r.inner.Create(ctx, post)
	if err != nil {
		return models.Post{}, err
	}
	r.cache.InvalidateByPrefix(ctx, cacheKeyList)
	return created, nil
}

// Update and Delete drop the detail key before and after the inner write, so a
// concurrent FindByID can at worst re-cache the old row while the write is in
// flight, never after it.
func (r *CachedPostRepository) Update(ctx context.Context, id uint, post models.Post) (models.Post, error) {
	r.cache.Delete(ctx, detailKey(id))
	updated, err := r.inner.Update(ctx, id, post)
	if err != nil {
		return models.Post{}, err
	}
	r.invalidate(ctx, id)
	return updated, nil
}

func (r *CachedPostRepository) Delete(ctx context.Context, id uint) error {
	r.cache.Delete(ctx, detailKey(id))
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedPostRepository) invalidate(ctx context.Context, id uint) {
	r.cache.InvalidateByPrefix(ctx, cacheKeyList)
	r.cache.Delete(ctx, detailKey(id))
}
