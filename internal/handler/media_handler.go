package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parley-chat/parley/internal/audit"
	"github.com/parley-chat/parley/pkg/log"
	"github.com/parley-chat/parley/pkg/middleware"
	"github.com/parley-chat/parley/pkg/response"
)

const maxUploadSize = 10 << 20 // 10 MiB

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadMedia stores an uploaded attachment and returns its storage key.
func (h *Handler) UploadMedia(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		response.BadRequest(c, "file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedMediaTypes[contentType] {
		response.BadRequest(c, "unsupported media type")
		return
	}

	key := "media/" + uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	if err := h.media.Write(ctx, key, file, header.Size, contentType); err != nil {
		l.Error().Err(err).Msg("media upload failed")
		response.InternalError(c, "failed to store file")
		return
	}

	url, err := h.media.GetURL(ctx, key, 24*time.Hour)
	if err != nil {
		l.Warn().Err(err).Msg("failed to build media url")
		url = ""
	}

	audit.LogWithTarget(ctx, audit.ActionUploadMedia, userID, key, "media uploaded")

	response.Created(c, gin.H{"key": key, "url": url})
}

// ServeMedia streams a stored attachment.
func (h *Handler) ServeMedia(c *gin.Context) {
	ctx := c.Request.Context()
	key := strings.TrimPrefix(c.Param("key"), "/")

	exists, err := h.media.Exists(ctx, key)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("media lookup failed")
		response.InternalError(c, "failed to read file")
		return
	}
	if !exists {
		response.NotFound(c, "file not found")
		return
	}

	rc, err := h.media.Read(ctx, key)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("media read failed")
		response.InternalError(c, "failed to read file")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, mediaContentType(key), rc, nil)
}

func mediaContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
