package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nutrimind/internal/favorites"
	"nutrimind/internal/metrics"
	"nutrimind/internal/platform/backend"
	"nutrimind/internal/platform/unsplash"
	"nutrimind/internal/recipe"
)

const (
	// ProfileHeader carries the profile id for clients that do not keep cookies.
	ProfileHeader = "X-Profile-ID"
	// ProfileCookie carries the profile id for browsers.
	ProfileCookie = "nutrimind_profile"

	profileCookieMaxAge = 365 * 24 * 60 * 60
	maxProfileIDLength  = 128
)

// User-facing messages for upstream failures.
const (
	msgTransport = "Failed to reach the recipe service. Please try again."
	msgMalformed = "The recipe service returned an unexpected response. Please try again."
)

// Recommender produces meal plans and ingredient searches as raw backend bodies.
type Recommender interface {
	GenerateMealPlan(ctx context.Context, req *recipe.MealPlanRequest) ([]byte, error)
	SearchRecipes(ctx context.Context, req *recipe.IngredientSearchRequest) ([]byte, error)
}

// Assistant answers chat messages and reports backend health.
type Assistant interface {
	Chat(ctx context.Context, req *backend.ChatRequest) (*backend.ChatResponse, error)
	Health(ctx context.Context) (*backend.HealthResponse, error)
}

// FavoritesStore defines the favorites operations the handlers need.
type FavoritesStore interface {
	Favorites(ctx context.Context, profile string) favorites.Set
	Toggle(ctx context.Context, profile string, r recipe.Recipe) (favorites.Set, bool, error)
}

// PhotoService resolves decorative photos.
type PhotoService interface {
	Background(ctx context.Context, variant string) unsplash.Photo
	RecipeImage(ctx context.Context, recipeName string) unsplash.Photo
	Thumbnail(ctx context.Context, imageURL string, width uint) ([]byte, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Recommender Recommender
	Assistant   Assistant
	Favorites   FavoritesStore
	Photos      PhotoService
	Metrics     *metrics.Collector
	Logger      *zap.Logger

	// DefaultDays fills in the plan length when the form leaves it blank.
	DefaultDays int
}

// NewHandler creates a new Handler.
func NewHandler(recommender Recommender, assistant Assistant, store FavoritesStore, photos PhotoService, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{
		Recommender: recommender,
		Assistant:   assistant,
		Favorites:   store,
		Photos:      photos,
		Metrics:     collector,
		Logger:      logger,
		DefaultDays: recipe.DefaultPlanDays,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/meal-plan", h.GenerateMealPlan)
	api.POST("/recipes/search", h.SearchRecipes)
	api.POST("/chat", h.Chat)
	api.GET("/health", h.Health)

	api.GET("/favorites", h.ListFavorites)
	api.POST("/favorites/toggle", h.ToggleFavorite)
	api.GET("/favorites/:id", h.IsFavorite)

	api.GET("/photos/background/:variant", h.Background)
	api.GET("/photos/recipe", h.RecipePhoto)
	api.GET("/photos/thumbnail", h.Thumbnail)
}

// profileID returns the caller's profile, issuing a new one as a cookie when absent.
func (h *Handler) profileID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(ProfileHeader)); id != "" && len(id) <= maxProfileIDLength {
		return id
	}
	if id, err := c.Cookie(ProfileCookie); err == nil && id != "" && len(id) <= maxProfileIDLength {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ProfileCookie, id, profileCookieMaxAge, "/", "", false, true)
	return id
}

// upstreamError maps a recommender or assistant failure onto a response.
func (h *Handler) upstreamError(c *gin.Context, op string, err error) {
	var verr *recipe.ValidationError
	var terr *backend.TransportError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, recipe.ErrMalformedResponse):
		h.Metrics.Upstream(op, "malformed")
		h.Logger.Error("Malformed upstream response", zap.String("operation", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgMalformed})
	case errors.As(err, &terr):
		h.Metrics.Upstream(op, "transport")
		h.Logger.Error("Upstream request failed",
			zap.String("operation", op),
			zap.Int("status", terr.StatusCode),
			zap.String("message", terr.Message),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgTransport})
	default:
		h.Metrics.Upstream(op, "transport")
		h.Logger.Error("Upstream request failed", zap.String("operation", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msgTransport})
	}
}
