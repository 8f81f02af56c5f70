package howl

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AlphaSurf-Browser/WolfPack/internal/logs"
	"github.com/AlphaSurf-Browser/WolfPack/internal/storage"
)

// MediaStore is the upload side-channel used when a howl carries a file.
// Satisfied by *storage.Client.
type MediaStore interface {
	Upload(ctx context.Context, file multipart.File, key, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	svc   *Service
	media MediaStore
}

func NewHandler(svc *Service, media MediaStore) *Handler {
	return &Handler{svc: svc, media: media}
}

// Create POST /api/howls
func (h *Handler) Create(c *gin.Context) {
	route := c.FullPath()
	actorID := c.GetString("user_id")
	content := c.PostForm("content")

	var media *Media
	var mediaKey string

	file, header, err := c.Request.FormFile("media")
	if err == nil {
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		kind, ok := MediaKindFromContentType(contentType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported media type"})
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		mediaKey = fmt.Sprintf("media/%d_%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)

		url, err := h.media.Upload(c.Request.Context(), file, mediaKey, contentType)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error uploading media"})
			logs.LogJSON("ERROR", "Media upload failed", map[string]interface{}{
				"error": err.Error(),
				"route": route,
			})
			return
		}
		media = &Media{URL: url, Kind: kind}
	}

	created, err := h.svc.Create(c.Request.Context(), Draft{Content: content, Media: media}, actorID)
	if err != nil {
		if mediaKey != "" {
			// The record never landed; drop the uploaded blob rather than
			// leaking it. Failure here is only logged.
			if delErr := h.media.Delete(c.Request.Context(), mediaKey); delErr != nil {
				logs.LogJSON("WARN", "Orphaned media cleanup failed", map[string]interface{}{
					"error": delErr.Error(),
					"key":   mediaKey,
				})
			}
		}
		h.respondError(c, route, actorID, "", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List GET /api/howls
func (h *Handler) List(c *gin.Context) {
	route := c.FullPath()

	howls, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, route, c.GetString("user_id"), "", err)
		return
	}

	c.JSON(http.StatusOK, howls)
}

// ToggleLike POST /api/howls/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	route := c.FullPath()
	actorID := c.GetString("user_id")
	howlID := c.Param("id")

	updated, err := h.svc.ToggleLike(c.Request.Context(), howlID, actorID)
	if err != nil {
		h.respondError(c, route, actorID, howlID, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) respondError(c *gin.Context, route, actorID, howlID string, err error) {
	fields := map[string]interface{}{
		"error":  err.Error(),
		"route":  route,
		"userID": actorID,
	}
	if howlID != "" {
		fields["howlID"] = howlID
	}

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		logs.LogJSON("WARN", "Invalid howl input", fields)
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		logs.LogJSON("WARN", "Unauthenticated actor", fields)
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Howl not found"})
		logs.LogJSON("WARN", "Howl not found", fields)
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent write conflict, retry"})
		logs.LogJSON("WARN", "Feed write conflict", fields)
	case errors.Is(err, ErrUnavailable), errors.Is(err, storage.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed storage unavailable"})
		logs.LogJSON("ERROR", "Feed storage unavailable", fields)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		logs.LogJSON("ERROR", "Unexpected feed error", fields)
	}
}
