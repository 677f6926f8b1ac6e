package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrimind/internal/platform/backend"
	"nutrimind/internal/recipe"
)

// GenerateMealPlan normalizes the diet form, asks the recommender for a plan and
// returns the flattened recipes.
func (h *Handler) GenerateMealPlan(c *gin.Context) {
	var form recipe.MealPlanForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal plan form"})
		return
	}
	if strings.TrimSpace(form.Days.String()) == "" && h.DefaultDays > 0 {
		form.Days = recipe.FormValue(strconv.Itoa(h.DefaultDays))
	}

	req := recipe.NormalizeMealPlanRequest(form)
	h.Logger.Info("Generating meal plan",
		zap.Strings("dietary_restrictions", req.DietaryRestrictions),
		zap.Int("days", req.Days))

	body, err := h.Recommender.GenerateMealPlan(c.Request.Context(), req)
	if err != nil {
		h.upstreamError(c, "meal plan", err)
		return
	}

	recipes, err := recipe.FlattenMealPlan(body)
	if err != nil {
		h.upstreamError(c, "meal plan", err)
		return
	}

	h.Metrics.Upstream("meal plan", "ok")
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
}

// SearchRecipes normalizes the ingredient form and returns matching recipes.
// An empty ingredient list is rejected before the recommender is called.
func (h *Handler) SearchRecipes(c *gin.Context) {
	var form recipe.IngredientSearchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient search form"})
		return
	}

	req, err := recipe.NormalizeIngredientSearchRequest(form)
	if err != nil {
		h.upstreamError(c, "recipe search", err)
		return
	}

	body, err := h.Recommender.SearchRecipes(c.Request.Context(), req)
	if err != nil {
		h.upstreamError(c, "recipe search", err)
		return
	}

	recipes, err := recipe.FlattenSearch(body)
	if err != nil {
		h.upstreamError(c, "recipe search", err)
		return
	}

	h.Metrics.Upstream("recipe search", "ok")
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
}

// Chat forwards a message to the backend assistant.
func (h *Handler) Chat(c *gin.Context) {
	var req backend.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat request"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if req.Context == nil {
		req.Context = []backend.ChatMessage{}
	}

	resp, err := h.Assistant.Chat(c.Request.Context(), &req)
	if err != nil {
		h.upstreamError(c, "chat", err)
		return
	}

	h.Metrics.Upstream("chat", "ok")
	c.JSON(http.StatusOK, resp)
}

// Health reports this service as up and the backend as reachable or not.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Assistant.Health(ctx)
	if err != nil {
		h.Logger.Warn("Backend health check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "backend": gin.H{"status": "unreachable"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": resp})
}
