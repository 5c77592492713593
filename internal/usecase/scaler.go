package usecase

import (
	"math"

	"github.com/bodybest/backend/internal/domain"
)

// ScaleMacros scales a product's reference macros to a target gram amount.
// Calories round to a whole number; the remaining fields are fixed to two
// decimals, the precision exposed to editable forms. A non-positive target
// yields an empty profile.
func ScaleMacros(product domain.Product, grams float64) domain.MacroProfile {
	if grams <= 0 || product.ReferenceGrams <= 0 {
		return domain.MacroProfile{}
	}

	factor := grams / product.ReferenceGrams
	return domain.MacroProfile{
		Calories: math.Round(product.Macros.Calories * factor),
		Protein:  Round2(product.Macros.Protein * factor),
		Carbs:    Round2(product.Macros.Carbs * factor),
		Fat:      Round2(product.Macros.Fat * factor),
		Fiber:    Round2(product.Macros.Fiber * factor),
	}
}

// CalcMacroGrams converts a macro's share of daily calories into grams:
// round(calories * percent / 100 / kcalPerGram). Used by manual macro
// editing together with the domain.KcalPerGram* constants.
func CalcMacroGrams(calories, percent, kcalPerGram float64) float64 {
	if kcalPerGram <= 0 {
		return 0
	}
	return math.Round(calories * percent / 100 / kcalPerGram)
}

// CalcMacroPercent is the inverse conversion:
// round(grams * kcalPerGram / calories * 100).
func CalcMacroPercent(calories, grams, kcalPerGram float64) float64 {
	if calories <= 0 {
		return 0
	}
	return math.Round(grams * kcalPerGram / calories * 100)
}

// Round2 fixes a value to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
