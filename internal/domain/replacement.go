package domain

import "time"

// MealData is the meal payload the rendering layer works with. The engine
// treats it as opaque beyond identity fields.
type MealData struct {
	Name   string       `json:"name"`
	Grams  float64      `json:"grams,omitempty"`
	Macros MacroProfile `json:"macros,omitempty"`
}

// CachedReplacement is a user-selected meal substitution, valid only for the
// local calendar date it was cached on.
type CachedReplacement struct {
	DayKey        string    `json:"dayKey"`
	MealIndex     int       `json:"mealIndex"`
	Meal          MealData  `json:"mealData"`
	CachedAt      time.Time `json:"cachedAt"`
	OriginalDay   string    `json:"originalDay,omitempty"`
	OriginalIndex int       `json:"originalIndex,omitempty"`
}
