package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Recipe is the display-level recipe record shared by meal plans, searches and favorites.
// Its identity is ID.
type Recipe struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Calories     *float64 `json:"calories,omitempty"`
	Protein      *float64 `json:"protein,omitempty"`
	Carbs        *float64 `json:"carbs,omitempty"`
	Fat          *float64 `json:"fat,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	CookTime     string   `json:"cookTime,omitempty"`
	Servings     *int     `json:"servings,omitempty"`
}

// MealPlanRequest is the body of POST /api/meal-plan on the recommendation backend.
type MealPlanRequest struct {
	DietaryRestrictions []string `json:"dietary_restrictions"`
	CalorieTarget       *int     `json:"calorie_target"`
	MealsPerDay         *int     `json:"meals_per_day"`
	Days                int      `json:"days"`
	Allergies           []string `json:"allergies"`
	Preferences         *string  `json:"preferences,omitempty"`
}

// IngredientSearchRequest is the body of POST /api/recipes/search on the recommendation backend.
type IngredientSearchRequest struct {
	Ingredients         []string `json:"ingredients"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	MealType            *string  `json:"meal_type"`
	Cuisine             *string  `json:"cuisine"`
	CookingTime         *int     `json:"cooking_time"`
	Servings            *int     `json:"servings"`
}

// FormValue is a loosely typed form field. Browsers post numbers either as
// JSON numbers or as strings, and lists either as comma separated text or as
// arrays, so all of them decode into the same textual value.
type FormValue string

// UnmarshalJSON implements the json.Unmarshaler interface for FormValue.
// Arrays are joined with commas; objects are rejected.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	case len(data) > 0 && data[0] == '[':
		var items []FormValue
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, string(item))
		}
		*v = FormValue(strings.Join(parts, ","))
	case len(data) > 0 && data[0] == '{':
		return fmt.Errorf("form value must be a string, number or list, got an object")
	default:
		*v = FormValue(string(data))
	}
	return nil
}

func (v FormValue) String() string {
	return string(v)
}

// MealPlanForm is the diet form state as the UI submits it.
type MealPlanForm struct {
	DietType     FormValue `json:"dietType" form:"dietType"`
	Calories     FormValue `json:"calories" form:"calories"`
	Meals        FormValue `json:"meals" form:"meals"`
	Restrictions FormValue `json:"restrictions" form:"restrictions"`
	Protein      FormValue `json:"protein" form:"protein"`
	Preferences  FormValue `json:"preferences" form:"preferences"`
	Days         FormValue `json:"days" form:"days"`
}

// IngredientSearchForm is the ingredient form state as the UI submits it.
type IngredientSearchForm struct {
	Ingredients FormValue `json:"ingredients" form:"ingredients"`
	Cuisine     FormValue `json:"cuisine" form:"cuisine"`
	Difficulty  FormValue `json:"difficulty" form:"difficulty"`
	MealType    FormValue `json:"mealType" form:"mealType"`
	CookingTime FormValue `json:"cookingTime" form:"cookingTime"`
	Servings    FormValue `json:"servings" form:"servings"`
}
