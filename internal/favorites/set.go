package favorites

import (
	"reflect"

	"nutrimind/internal/recipe"
)

// Set is an immutable, insertion-ordered set of recipes keyed by recipe ID.
// The zero value is an empty set.
type Set struct {
	order []string
	items map[string]recipe.Recipe
}

// NewSet builds a set from recipes. Recipes without an ID are skipped and the
// first occurrence of a duplicate ID wins.
func NewSet(recipes ...recipe.Recipe) Set {
	s := Set{items: make(map[string]recipe.Recipe, len(recipes))}
	for _, r := range recipes {
		if r.ID == "" {
			continue
		}
		if _, ok := s.items[r.ID]; ok {
			continue
		}
		s.order = append(s.order, r.ID)
		s.items[r.ID] = r
	}
	return s
}

// Len returns the number of favorites.
func (s Set) Len() int {
	return len(s.order)
}

// Contains reports whether a recipe with the given ID is a favorite.
func (s Set) Contains(id string) bool {
	_, ok := s.items[id]
	return ok
}

// Get returns the stored recipe for an ID.
func (s Set) Get(id string) (recipe.Recipe, bool) {
	r, ok := s.items[id]
	return r, ok
}

// Recipes returns the favorites in the order they were added.
func (s Set) Recipes() []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Toggle returns a new set with r removed if its ID was present, or added otherwise.
// Re-adding stores r verbatim.
func (s Set) Toggle(r recipe.Recipe) Set {
	if s.Contains(r.ID) {
		next := Set{items: make(map[string]recipe.Recipe, len(s.items))}
		for _, id := range s.order {
			if id == r.ID {
				continue
			}
			next.order = append(next.order, id)
			next.items[id] = s.items[id]
		}
		return next
	}

	next := Set{
		order: make([]string, 0, len(s.order)+1),
		items: make(map[string]recipe.Recipe, len(s.items)+1),
	}
	next.order = append(next.order, s.order...)
	for id, item := range s.items {
		next.items[id] = item
	}
	next.order = append(next.order, r.ID)
	next.items[r.ID] = r
	return next
}

// Equal reports whether both sets hold the same recipes. Order is ignored.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id, r := range s.items {
		o, ok := other.items[id]
		if !ok || !reflect.DeepEqual(r, o) {
			return false
		}
	}
	return true
}
