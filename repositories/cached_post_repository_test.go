package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/utils"
)

// countingRepository counts reads that reach the wrapped repository.
type countingRepository struct {
	PostRepository
	findAll  int
	findByID int
	onWrite  func()
}

func (c *countingRepository) Update(ctx context.Context, id uint, post models.Post) (models.Post, error) {
	if c.onWrite != nil {
		c.onWrite()
	}
	return c.PostRepository.Update(ctx, id, post)
}

func (c *countingRepository) Delete(ctx context.Context, id uint) error {
	if c.onWrite != nil {
		c.onWrite()
	}
	return c.PostRepository.Delete(ctx, id)
}

func (c *countingRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	c.findAll++
	return c.PostRepository.FindAll(ctx)
}

func (c *countingRepository) FindByID(ctx context.Context, id uint) (models.Post, error) {
	c.findByID++
	return c.PostRepository.FindByID(ctx, id)
}

func newCachedRepo(t *testing.T) (*CachedPostRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	inner := &countingRepository{PostRepository: NewGormPostRepository(newTestDB(t))}
	return NewCachedPostRepository(inner, utils.NewCache(rc, time.Minute)), inner, mr
}

func TestCachedPostRepository_FindByIDIsCached(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, models.Post{Title: "Hello", Content: "World"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		post, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", post.Title)
	}

	assert.Equal(t, 1, inner.findByID)
	assert.True(t, mr.Exists(detailKey(created.ID)))
	assert.Equal(t, time.Minute, mr.TTL(detailKey(created.ID)))
}

func TestCachedPostRepository_NotFoundIsNotCached(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)

	_, err := repo.FindByID(context.Background(), 404)
	assert.True(t, utils.IsNotFound(err))
	_, err = repo.FindByID(context.Background(), 404)
	assert.True(t, utils.IsNotFound(err))

	assert.Equal(t, 2, inner.findByID)
	assert.False(t, mr.Exists(detailKey(404)))
}

func TestCachedPostRepository_WritesInvalidate(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, models.Post{Title: "Hello", Content: "World"})
	require.NoError(t, err)

	posts, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	_, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKeyList))

	_, err = repo.Update(ctx, created.ID, models.Post{Title: "Changed", Content: "World"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKeyList))
	assert.False(t, mr.Exists(detailKey(created.ID)))

	post, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", post.Title)

	_, err = repo.Create(ctx, models.Post{Title: "Second", Content: "Post"})
	require.NoError(t, err)
	posts, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 2, inner.findAll)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestCachedPostRepository_FallsThroughWhenRedisDown(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, models.Post{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	mr.Close()

	post, err := repo.FindByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, 1, inner.findByID)
}

func TestCachedPostRepository_NilCache(t *testing.T) {
	inner := &countingRepository{PostRepository: NewGormPostRepository(newTestDB(t))}
	repo := NewCachedPostRepository(inner, nil)
	ctx := context.Background()

	_, err := repo.FindAll(ctx)
	require.NoError(t, err)
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.findAll)
}

func TestCachedPostRepository_DetailDroppedBeforeWrite(t *testing.T) {
	repo, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, models.Post{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(detailKey(created.ID)))

	var cachedDuringWrite []bool
	inner.onWrite = func() {
		cachedDuringWrite = append(cachedDuringWrite, mr.Exists(detailKey(created.ID)))
		// a reader racing the write re-caches the old row
		require.NoError(t, mr.Set(detailKey(created.ID), `{"id":1,"title":"Hello","content":"World"}`))
	}

	_, err = repo.Update(ctx, created.ID, models.Post{Title: "Changed", Content: "World"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(detailKey(created.ID)))

	post, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", post.Title)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.False(t, mr.Exists(detailKey(created.ID)))
	assert.Equal(t, []bool{false, false}, cachedDuringWrite)
}
