package recipe

import (
	"encoding/json"
	"fmt"
)

// Nutrition is the nested nutrition object of a backend recipe.
type Nutrition struct {
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Fat           *float64 `json:"fat"`
}

// PlannedRecipe is a recipe as it appears inside a meal plan response.
type PlannedRecipe struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Nutrition    *Nutrition `json:"nutrition"`
	Ingredients  []string   `json:"ingredients"`
	Instructions []string   `json:"instructions"`
}

// Meal is one meal slot of a planned day.
type Meal struct {
	MealType string         `json:"meal_type,omitempty"`
	Recipe   *PlannedRecipe `json:"recipe"`
}

// DayPlan is one day of a meal plan response.
type DayPlan struct {
	Day   int     `json:"day,omitempty"`
	Meals *[]Meal `json:"meals"`
}

// MealPlanResponse is the success body of the backend meal plan endpoint.
// Pointers distinguish a missing field from an empty one.
type MealPlanResponse struct {
	Plan *[]DayPlan `json:"plan"`
}

// SearchRecipe is a recipe as the backend search endpoint returns it: the
// display fields plus nested nutrition and a cook time in minutes.
type SearchRecipe struct {
	Recipe
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
	CookMinutes *float64   `json:"cook_time,omitempty"`
}

// Flat lifts nested nutrition and the cook time onto the display record.
// Values already present at the top level win.
func (s SearchRecipe) Flat() Recipe {
	r := s.Recipe
	if n := s.Nutrition; n != nil {
		if r.Calories == nil {
			r.Calories = n.Calories
		}
		if r.Protein == nil {
			r.Protein = n.Protein
		}
		if r.Carbs == nil {
			r.Carbs = n.Carbohydrates
		}
		if r.Fat == nil {
			r.Fat = n.Fat
		}
	}
	if r.CookTime == "" && s.CookMinutes != nil && *s.CookMinutes > 0 {
		r.CookTime = fmt.Sprintf("%d min", int(*s.CookMinutes))
	}
	return r
}

// SearchResponse is the success body of the backend recipe search endpoint.
type SearchResponse struct {
	Recipes []SearchRecipe `json:"recipes"`
}

// FlattenMealPlan decodes a meal plan body and returns one Recipe per meal slot,
// days outer and meals inner. A body without the day list is malformed, not empty.
func FlattenMealPlan(body []byte) ([]Recipe, error) {
	var resp MealPlanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed("decode meal plan: %v", err)
	}
	return FlattenPlan(&resp)
}

// FlattenPlan flattens an already decoded meal plan response.
func FlattenPlan(resp *MealPlanResponse) ([]Recipe, error) {
	if resp == nil || resp.Plan == nil {
		return nil, malformed("missing plan")
	}

	recipes := []Recipe{}
	for d, day := range *resp.Plan {
		if day.Meals == nil {
			return nil, malformed("day %d has no meals", d+1)
		}
		for m, meal := range *day.Meals {
			if meal.Recipe == nil {
				return nil, malformed("day %d meal %d has no recipe", d+1, m+1)
			}
			if meal.Recipe.Nutrition == nil {
				return nil, malformed("day %d meal %d has no nutrition", d+1, m+1)
			}
			recipes = append(recipes, flattenMeal(meal.Recipe))
		}
	}
	return recipes, nil
}

func flattenMeal(r *PlannedRecipe) Recipe {
	return Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Calories:     r.Nutrition.Calories,
		Protein:      r.Nutrition.Protein,
		Carbs:        r.Nutrition.Carbohydrates,
		Fat:          r.Nutrition.Fat,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
	}
}

// FlattenSearch decodes a recipe search body. Each result keeps its own fields,
// with nested nutrition and cook time lifted onto the record; a missing list is empty.
func FlattenSearch(body []byte) ([]Recipe, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed("decode search results: %v", err)
	}

	recipes := make([]Recipe, 0, len(resp.Recipes))
	for _, r := range resp.Recipes {
		recipes = append(recipes, r.Flat())
	}
	return recipes, nil
}
