package howl

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(repo Repository, requireActor bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(repo, requireActor), nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/howls", handler.List)
	api.POST("/howls", handler.Create)
	api.POST("/howls/:id/like", handler.ToggleLike)
	return r
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateEmptyContent(t *testing.T) {
	r := newTestRouter(&stubRepo{}, false)

	w := postForm(r, "/api/howls", url.Values{"content": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content")
}

func TestHandlerCreateReturnsCreated(t *testing.T) {
	r := newTestRouter(&stubRepo{}, false)

	w := postForm(r, "/api/howls", url.Values{"content": {"hello pack"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "hello pack")
}

func TestHandlerListEmptyFeed(t *testing.T) {
	r := newTestRouter(&stubRepo{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/howls", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHandlerLikeNotFound(t *testing.T) {
	r := newTestRouter(&stubRepo{}, false)

	w := postForm(r, "/api/howls/99/like", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Howl not found")
}

func TestHandlerMutationsRequireActor(t *testing.T) {
	// The document deployment: no actor on the context means 401 even if
	// the middleware was bypassed.
	r := newTestRouter(&stubRepo{howls: []Howl{{ID: "1"}}}, true)

	w := postForm(r, "/api/howls", url.Values{"content": {"anon"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postForm(r, "/api/howls/1/like", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerConflictMapsTo409(t *testing.T) {
	r := newTestRouter(&stubRepo{err: ErrConflict}, false)

	w := postForm(r, "/api/howls/1/like", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
