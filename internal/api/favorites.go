package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrimind/internal/favorites"
	"nutrimind/internal/recipe"
)

const favoritesTimeout = 5 * time.Second

// ListFavorites returns the caller's favorites in the order they were added.
func (h *Handler) ListFavorites(c *gin.Context) {
	profile := h.profileID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), favoritesTimeout)
	defer cancel()

	set := h.Favorites.Favorites(ctx, profile)
	c.JSON(http.StatusOK, gin.H{"favorites": set.Recipes(), "count": set.Len()})
}

// ToggleFavorite adds the posted recipe to the caller's favorites, or removes it
// if a recipe with the same id is already there.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	profile := h.profileID(c)

	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), favoritesTimeout)
	defer cancel()

	set, favorited, err := h.Favorites.Toggle(ctx, profile, r)
	if err != nil {
		if errors.Is(err, favorites.ErrMissingID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, favorites.ErrUnavailable) {
			h.Logger.Error("Failed to load favorites before toggle", zap.String("profile", profile), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Favorites are temporarily unavailable. Please try again."})
			return
		}
		h.Logger.Error("Failed to save favorites", zap.String("profile", profile), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorites"})
		return
	}

	h.Metrics.FavoriteToggled(favorited)
	c.JSON(http.StatusOK, gin.H{"favorited": favorited, "favorites": set.Recipes()})
}

// IsFavorite reports whether the recipe id is among the caller's favorites.
func (h *Handler) IsFavorite(c *gin.Context) {
	profile := h.profileID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), favoritesTimeout)
	defer cancel()

	set := h.Favorites.Favorites(ctx, profile)
	c.JSON(http.StatusOK, gin.H{"favorited": set.Contains(c.Param("id"))})
}
