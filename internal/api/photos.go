package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultThumbnailWidth = 400
	maxThumbnailWidth     = 1600
)

// Background returns the background photo for a view variant.
func (h *Handler) Background(c *gin.Context) {
	photo := h.Photos.Background(c.Request.Context(), c.Param("variant"))
	h.Metrics.PhotoLookup("background", photo.Fallback)
	c.JSON(http.StatusOK, photo)
}

// RecipePhoto returns a card photo for ?name=.
func (h *Handler) RecipePhoto(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	photo := h.Photos.RecipeImage(c.Request.Context(), name)
	h.Metrics.PhotoLookup("recipe", photo.Fallback)
	c.JSON(http.StatusOK, photo)
}

// Thumbnail returns the recipe photo for ?name= as a JPEG scaled to ?width=.
func (h *Handler) Thumbnail(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	width := defaultThumbnailWidth
	if w := c.Query("width"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width must be a positive integer"})
			return
		}
		width = min(n, maxThumbnailWidth)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	photo := h.Photos.RecipeImage(ctx, name)
	h.Metrics.PhotoLookup("thumbnail", photo.Fallback)

	data, err := h.Photos.Thumbnail(ctx, photo.URL, uint(width))
	if err != nil {
		h.Logger.Warn("Failed to build thumbnail", zap.String("url", photo.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch image"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}
