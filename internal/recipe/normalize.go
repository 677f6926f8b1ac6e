package recipe

import (
	"math"
	"strconv"
	"strings"
)

// DefaultPlanDays is the number of days requested when the form does not say otherwise.
const DefaultPlanDays = 5

// DefaultServings matches the backend default for ingredient searches.
const DefaultServings = 4

// AnyCuisine is the UI sentinel meaning "no cuisine filter".
const AnyCuisine = "any"

// dietRestrictions maps UI diet labels to backend restriction tags.
// An empty tag means the backend has no equivalent and nothing is sent.
var dietRestrictions = map[string]string{
	"balanced":      "",
	"low-carb":      "low_carb",
	"high-protein":  "high_protein",
	"vegetarian":    "vegetarian",
	"vegan":         "vegan",
	"keto":          "keto",
	"paleo":         "paleo",
	"mediterranean": "",
}

// DietTypes returns the diet labels the UI offers.
func DietTypes() []string {
	return []string{"balanced", "low-carb", "high-protein", "vegetarian", "vegan", "keto", "paleo", "mediterranean"}
}

// NormalizeMealPlanRequest converts the diet form into the backend request shape.
// It never fails: unmapped diet labels yield no restriction and non-numeric numbers become null.
func NormalizeMealPlanRequest(form MealPlanForm) *MealPlanRequest {
	restrictions := []string{}
	if tag := dietRestrictions[strings.TrimSpace(form.DietType.String())]; tag != "" {
		restrictions = append(restrictions, tag)
	}

	allergies := []string{}
	for _, a := range splitList(form.Restrictions.String()) {
		allergies = append(allergies, strings.ToLower(a))
	}

	days := DefaultPlanDays
	if strings.TrimSpace(form.Days.String()) != "" {
		if n := coerceInt(form.Days.String()); n != nil && *n > 0 {
			days = *n
		}
	}

	req := &MealPlanRequest{
		DietaryRestrictions: restrictions,
		CalorieTarget:       coerceInt(form.Calories.String()),
		MealsPerDay:         coerceInt(form.Meals.String()),
		Days:                days,
		Allergies:           allergies,
	}

	note := strings.TrimSpace(form.Preferences.String())
	if note == "" {
		note = strings.TrimSpace(form.Protein.String())
	}
	if note != "" {
		req.Preferences = &note
	}

	return req
}

// NormalizeIngredientSearchRequest converts the ingredient form into the backend request shape.
// Ingredient case is preserved. The difficulty field is not part of the backend contract and is dropped.
func NormalizeIngredientSearchRequest(form IngredientSearchForm) (*IngredientSearchRequest, error) {
	ingredients := splitList(form.Ingredients.String())
	if len(ingredients) == 0 {
		return nil, &ValidationError{Field: "ingredients", Err: ErrNoIngredients}
	}

	req := &IngredientSearchRequest{
		Ingredients:         ingredients,
		DietaryRestrictions: []string{},
		MealType:            optionalString(form.MealType.String()),
		Cuisine:             optionalString(form.Cuisine.String()),
	}

	if strings.TrimSpace(form.CookingTime.String()) != "" {
		req.CookingTime = coerceInt(form.CookingTime.String())
	}

	if strings.TrimSpace(form.Servings.String()) == "" {
		servings := DefaultServings
		req.Servings = &servings
	} else {
		req.Servings = coerceInt(form.Servings.String())
	}

	return req, nil
}

// splitList splits a comma separated field, trimming entries and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// optionalString maps empty values and the "any" sentinel to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AnyCuisine) {
		return nil
	}
	return &s
}

// coerceInt follows browser Number() coercion: blank is zero, anything that is
// not a finite integer in 32-bit range is nil and serializes as null.
func coerceInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		zero := 0
		return &zero
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
