package controllers

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repositories"
	"github.com/cppla/postapi/utils"
)

// PostController exposes CRUD operations for posts. Failures are attached to
// the gin context and rendered by middleware.ErrorHandler.
type PostController struct {
	repo repositories.PostRepository
	log  *zap.SugaredLogger
}

// NewPostController creates a new PostController instance.
func NewPostController(repo repositories.PostRepository, log *zap.SugaredLogger) *PostController {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PostController{repo: repo, log: log}
}

// Index lists all posts, or only those whose content matches ?search=.
func (p *PostController) Index(ctx *gin.Context) {
	var (
		posts []models.Post
		err   error
	)
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		posts, err = p.repo.FindBySearchTerm(ctx.Request.Context(), search)
	} else {
		posts, err = p.repo.FindAll(ctx.Request.Context())
	}
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	utils.Success(ctx, posts)
}

// Show returns a single post.
func (p *PostController) Show(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	post, err := p.repo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	utils.Success(ctx, post)
}

// Store creates a post and answers 201 with the persisted entity.
func (p *PostController) Store(ctx *gin.Context) {
	post, err := bindPost(ctx)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	created, err := p.repo.Create(ctx.Request.Context(), post)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	p.log.Infow("post created", "post_id", created.ID)
	utils.Created(ctx, created)
}

// Update replaces title and content of the post addressed by the path id.
func (p *PostController) Update(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	post, err := bindPost(ctx)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	updated, err := p.repo.Update(ctx.Request.Context(), id, post)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	p.log.Infow("post updated", "post_id", id)
	utils.Success(ctx, updated)
}

// Destroy deletes a post and answers 204.
func (p *PostController) Destroy(ctx *gin.Context) {
	id, err := parseID(ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	if err := p.repo.Delete(ctx.Request.Context(), id); err != nil {
		_ = ctx.Error(err)
		return
	}
	p.log.Infow("post deleted", "post_id", id)
	utils.NoContent(ctx)
}

// parseID accepts only positive base-10 integers.
func parseID(raw string) (uint, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 || uint64(n) > uint64(^uint(0)) {
		return 0, utils.InvalidIdentifier(raw)
	}
	return uint(n), nil
}

// bindPost decodes the JSON body and validates it. The returned post never
// carries an ID.
func bindPost(ctx *gin.Context) (models.Post, error) {
	var body map[string]any
	if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return models.Post{}, utils.InvalidPayload(err)
	}

	title := utils.SanitizeField(stringField(body, "title"))
	content := utils.SanitizeField(stringField(body, "content"))
	if details := validatePost(title, content); len(details) > 0 {
		return models.Post{}, utils.ValidationFailed(details)
	}
	return models.Post{Title: title, Content: content}, nil
}

// validatePost collects every field error instead of stopping at the first.
func validatePost(title, content string) map[string]string {
	details := map[string]string{}
	switch {
	case title == "":
		details["title"] = "title is required"
	case utf8.RuneCountInString(title) > models.TitleMaxLength:
		details["title"] = "title must not exceed " + strconv.Itoa(models.TitleMaxLength) + " characters"
	}
	if content == "" {
		details["content"] = "content is required"
	}
	return details
}

// stringField returns body[key] when it is a string. Other types count as missing.
func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}
