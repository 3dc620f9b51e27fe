package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/postapi/config"
	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/repositories"
	"github.com/cppla/postapi/utils"
)

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestRouter(t *testing.T, cfg config.AppConfig) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Post{}))

	cfg.GinMode = "test"
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 600
	}
	return SetupRouter(Dependencies{
		Config: cfg,
		Posts:  repositories.NewGormPostRepository(db),
	})
}

func call(t *testing.T, r *gin.Engine, method, path, body string, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestPostLifecycle(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{})

	w, env := call(t, r, http.MethodPost, "/api/v1/posts", `{"title":"Hello","content":"World"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Post
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, "Hello", created.Title)
	assert.Equal(t, "World", created.Content)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	path := "/api/v1/posts/" + jsonNumber(created.ID)

	w, env = call(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, r, http.MethodPut, path, `{"title":"Hello again","content":"World"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, r, http.MethodGet, "/api/v1/posts?search=World", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []models.Post
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Hello again", found[0].Title)

	w, _ = call(t, r, http.MethodDelete, path, "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, env = call(t, r, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.CodeNotFound, env.Code)
}

func TestSearchFindsPlainTextAsTyped(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{})

	w, env := call(t, r, http.MethodPost, "/api/v1/posts", `{"title":"Cartoons","content":"Tom & Jerry"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Post
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Tom & Jerry", created.Content)

	w, env = call(t, r, http.MethodGet, "/api/v1/posts?search=Tom%20%26%20Jerry", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []models.Post
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	w, env = call(t, r, http.MethodGet, "/api/v1/posts?search=amp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestShowInvalidAndMissingIDs(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{})

	for _, id := range []string{"0", "-5"} {
		w, env := call(t, r, http.MethodGet, "/api/v1/posts/"+id, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.Equal(t, utils.CodeInvalidIdentifier, env.Code, id)
	}

	w, env := call(t, r, http.MethodGet, "/api/v1/posts/7", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.CodeNotFound, env.Code)
}

func TestStoreValidationEnvelope(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{})

	w, env := call(t, r, http.MethodPost, "/api/v1/posts", `{}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation failed", env.Message)
	assert.Equal(t, "title is required", env.Errors["title"])
	assert.Equal(t, "content is required", env.Errors["content"])
}

func TestWritesRequireTokenWhenSecretConfigured(t *testing.T) {
	secret := "router-test-secret"
	r := newTestRouter(t, config.AppConfig{JWTSecret: secret})

	w, _ := call(t, r, http.MethodPost, "/api/v1/posts", `{"title":"Hello","content":"World"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(t, r, http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "editor",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	w, _ = call(t, r, http.MethodPost, "/api/v1/posts", `{"title":"Hello","content":"World"}`,
		http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestWritesAreRateLimited(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{RateLimitPerMinute: 2})

	first, _ := call(t, r, http.MethodDelete, "/api/v1/posts/1", "", nil)
	second, env := call(t, r, http.MethodDelete, "/api/v1/posts/1", "", nil)

	assert.Equal(t, http.StatusNotFound, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, utils.CodeRateLimited, env.Code)
}

func TestHealthMetricsAndNoRoute(t *testing.T) {
	r := newTestRouter(t, config.AppConfig{})

	w, env := call(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	w, env = call(t, r, http.MethodGet, "/api/v1/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, utils.CodeRouteNotFound, env.Code)

	w, _ = call(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
