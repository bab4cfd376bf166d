// Package recipes matches the low-carbon recipe catalog against what a
// visitor has in the kitchen.
package recipes

import (
	"math/rand"
	"sort"
	"strings"
)

// CarbonScore grades a recipe's footprint.
type CarbonScore string

const (
	CarbonVeryLow CarbonScore = "Very Low"
	CarbonLow     CarbonScore = "Low"
	CarbonMedium  CarbonScore = "Medium"
	CarbonHigh    CarbonScore = "High"
)

// DietaryAll disables the dietary filter.
const DietaryAll = "all"

// TimeBand is the cooking-time filter.
type TimeBand string

const (
	TimeAny    TimeBand = "any"
	TimeQuick  TimeBand = "quick"
	TimeMedium TimeBand = "medium"
	TimeLong   TimeBand = "long"
)

// ParseTimeBand maps unknown values to TimeAny.
func ParseTimeBand(s string) TimeBand {
	switch b := TimeBand(s); b {
	case TimeQuick, TimeMedium, TimeLong:
		return b
	default:
		return TimeAny
	}
}

// Admits reports whether a recipe taking minutes fits the band. The quick and
// long bands share no boundary; medium overlaps both.
func (b TimeBand) Admits(minutes int) bool {
	switch b {
	case TimeQuick:
		return minutes <= 30
	case TimeMedium:
		return minutes > 15 && minutes <= 45
	case TimeLong:
		return minutes > 30
	default:
		return true
	}
}

type Recipe struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	Ingredients     []string    `json:"ingredients" yaml:"ingredients"`
	Dietary         []string    `json:"dietary" yaml:"dietary"`
	CarbonScore     CarbonScore `json:"carbon_score" yaml:"carbon_score"`
	PrepTimeMinutes int         `json:"prep_time_minutes" yaml:"prep_time_minutes"`
	Image           string      `json:"image" yaml:"image"`
	Instructions    string      `json:"instructions" yaml:"instructions"`
}

// HasTag reports whether the recipe carries the dietary tag.
func (r Recipe) HasTag(tag string) bool {
	for _, t := range r.Dietary {
		if t == tag {
			return true
		}
	}
	return false
}

// MatchCount is the number of recipe ingredients containing at least one of
// the user's ingredients.
func (r Recipe) MatchCount(ingredients []string) int {
	n := 0
	for _, ing := range r.Ingredients {
		if containsAny(ing, ingredients) {
			n++
		}
	}
	return n
}

func (r Recipe) matchesIngredients(ingredients []string) bool {
	if len(ingredients) == 0 {
		return true
	}
	for _, ing := range r.Ingredients {
		if containsAny(ing, ingredients) {
			return true
		}
	}
	return false
}

func containsAny(recipeIngredient string, userIngredients []string) bool {
	for _, u := range userIngredients {
		if strings.Contains(recipeIngredient, u) {
			return true
		}
	}
	return false
}

// ParseIngredients turns the comma separated ingredient field into
// lowercase, trimmed, non-empty tokens.
func ParseIngredients(raw string) []string {
	var out []string
	for _, part := range strings.Split(strings.ToLower(raw), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match filters the catalog and orders the result by descending ingredient
// match count. Equal counts keep catalog order.
func Match(catalog []Recipe, ingredients []string, dietary string, band TimeBand) []Recipe {
	var matched []Recipe
	for _, r := range catalog {
		if !r.matchesIngredients(ingredients) {
			continue
		}
		if dietary != DietaryAll && !r.HasTag(dietary) {
			continue
		}
		if !band.Admits(r.PrepTimeMinutes) {
			continue
		}
		matched = append(matched, r)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].MatchCount(ingredients) > matched[j].MatchCount(ingredients)
	})
	return matched
}

// Suggest picks one recipe uniformly at random, for the empty-result path.
func Suggest(catalog []Recipe, rnd *rand.Rand) (Recipe, bool) {
	if len(catalog) == 0 {
		return Recipe{}, false
	}
	return catalog[rnd.Intn(len(catalog))], true
}

// HighlightedIngredient is a recipe ingredient flagged when the visitor has it.
type HighlightedIngredient struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
}

func Highlight(r Recipe, ingredients []string) []HighlightedIngredient {
	out := make([]HighlightedIngredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		out[i] = HighlightedIngredient{Name: ing, Matched: containsAny(ing, ingredients)}
	}
	return out
}

// Find looks a recipe up by id.
func Find(catalog []Recipe, id string) (Recipe, bool) {
	for _, r := range catalog {
		if r.ID == id {
			return r, true
		}
	}
	return Recipe{}, false
}

// AddSaved appends id to saved unless it is already there.
func AddSaved(saved []string, id string) ([]string, bool) {
	for _, s := range saved {
		if s == id {
			return saved, false
		}
	}
	return append(saved, id), true
}
