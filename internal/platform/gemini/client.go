package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"nutrimind/internal/recipe"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

// generator is the part of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client produces meal plans and recipe searches with the Gemini API.
// Its bodies have the same shape as the recommendation backend's.
type Client struct {
	model  generator
	client *genai.Client
	logger *zap.Logger
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &Client{model: model, client: client, logger: logger}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GenerateMealPlan asks the model for a plan and returns it as a {"plan": [...]} body.
func (c *Client) GenerateMealPlan(ctx context.Context, req *recipe.MealPlanRequest) ([]byte, error) {
	text, err := c.generate(ctx, mealPlanPrompt(req))
	if err != nil {
		return nil, err
	}

	raw, ok := extractObject(text)
	if !ok {
		c.logger.Error("No JSON object in meal plan response", zap.String("response", text))
		return nil, fmt.Errorf("%w: no JSON object in model output", recipe.ErrMalformedResponse)
	}

	var generated struct {
		Days *[]recipe.DayPlan `json:"days"`
		Plan *[]recipe.DayPlan `json:"plan"`
	}
	if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		return nil, fmt.Errorf("%w: decode model meal plan: %v", recipe.ErrMalformedResponse, err)
	}

	plan := generated.Days
	if plan == nil {
		plan = generated.Plan
	}
	if plan != nil {
		for _, day := range *plan {
			if day.Meals == nil {
				continue
			}
			for _, meal := range *day.Meals {
				if meal.Recipe != nil && meal.Recipe.ID == "" {
					meal.Recipe.ID = uuid.NewString()
				}
			}
		}
	}

	body, err := json.Marshal(recipe.MealPlanResponse{Plan: plan})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meal plan: %w", err)
	}
	return body, nil
}

// SearchRecipes asks the model for recipes and returns them as a {"recipes": [...]} body.
func (c *Client) SearchRecipes(ctx context.Context, req *recipe.IngredientSearchRequest) ([]byte, error) {
	text, err := c.generate(ctx, searchPrompt(req))
	if err != nil {
		return nil, err
	}

	raw, ok := extractArray(text)
	if !ok {
		c.logger.Error("No JSON in recipe search response", zap.String("response", text))
		return nil, fmt.Errorf("%w: no JSON in model output", recipe.ErrMalformedResponse)
	}

	var generated []recipe.SearchRecipe
	if strings.HasPrefix(raw, "{") {
		var one recipe.SearchRecipe
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return nil, fmt.Errorf("%w: decode model recipe: %v", recipe.ErrMalformedResponse, err)
		}
		generated = append(generated, one)
	} else if err := json.Unmarshal([]byte(raw), &generated); err != nil {
		return nil, fmt.Errorf("%w: decode model recipes: %v", recipe.ErrMalformedResponse, err)
	}

	for i := range generated {
		if generated[i].ID == "" {
			generated[i].ID = uuid.NewString()
		}
	}

	// Nested nutrition and cook_time are kept so the body matches the backend's
	// search shape and is flattened the same way.
	body, err := json.Marshal(recipe.SearchResponse{Recipes: generated})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipes: %w", err)
	}
	return body, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error("Gemini request failed", zap.Error(err))
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from Gemini", recipe.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: unexpected response format from Gemini", recipe.ErrMalformedResponse)
	}
	return sb.String(), nil
}

// extractObject returns the first balanced {...} in text. Braces inside strings are ignored.
func extractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// extractArray returns the outermost [...] in text, or a single object when there is no array.
func extractArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end > start {
		return text[start : end+1], true
	}
	return extractObject(text)
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

func mealPlanPrompt(req *recipe.MealPlanRequest) string {
	calories, meals, preferences := "None", "3", "None"
	if req.CalorieTarget != nil {
		calories = fmt.Sprint(*req.CalorieTarget)
	}
	if req.MealsPerDay != nil {
		meals = fmt.Sprint(*req.MealsPerDay)
	}
	if req.Preferences != nil && *req.Preferences != "" {
		preferences = *req.Preferences
	}

	return fmt.Sprintf(`You are NutriMind, an expert meal-planning AI.
Output valid JSON only: no explanations, no markdown, no text outside JSON.
If you cannot satisfy a field, use a reasonable placeholder.
The output must follow this schema:

{"days": [{"day": 1, "meals": [{"meal_type": "breakfast", "recipe": {
  "name": "string", "description": "string",
  "ingredients": ["string"], "instructions": ["string"],
  "prep_time": 0, "cook_time": 0,
  "nutrition": {"calories": 0, "protein": 0, "carbohydrates": 0, "fat": 0, "fiber": 0, "sugar": 0, "sodium": 0}
}}]}]}

USER INPUT:
- Dietary restrictions: %s
- Calorie target: %s
- Meals per day: %s
- Days: %d
- Allergies: %s
- Preferences: %s

Return JSON only.`,
		orNone(req.DietaryRestrictions), calories, meals, req.Days, orNone(req.Allergies), preferences)
}

func searchPrompt(req *recipe.IngredientSearchRequest) string {
	mealType, cuisine, cookingTime, servings := "Any", "Any", "Any", recipe.DefaultServings
	if req.MealType != nil {
		mealType = *req.MealType
	}
	if req.Cuisine != nil {
		cuisine = *req.Cuisine
	}
	if req.CookingTime != nil {
		cookingTime = fmt.Sprint(*req.CookingTime)
	}
	if req.Servings != nil {
		servings = *req.Servings
	}

	return fmt.Sprintf(`Find 3-5 recipes using these ingredients: %s

Restrictions: %s
Meal type: %s
Cuisine: %s
Max cooking time: %s minutes
Servings: %d

Rules:
- Return JSON only, no text outside JSON.
- Nutrition values must be plain numbers with no units, e.g. "protein": 18 not "18g".

OUTPUT FORMAT:
[{"name": "...", "description": "...", "ingredients": ["..."], "instructions": ["..."],
  "prep_time": 0, "cook_time": 0, "servings": %d,
  "nutrition": {"calories": 0, "protein": 0, "carbohydrates": 0, "fat": 0, "fiber": 0, "sugar": 0, "sodium": 0}}]`,
		strings.Join(req.Ingredients, ", "), orNone(req.DietaryRestrictions), mealType, cuisine, cookingTime, servings, servings)
}
