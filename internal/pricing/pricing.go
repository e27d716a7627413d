// Package pricing estimates the current resale value of a reported item.
package pricing

import "math"

// Defaults applied when an input field is missing.
const (
	DefaultOriginalPrice = 50000
	DefaultUsedDuration  = 2
	DefaultUserLifespan  = 5
	DefaultCondition     = 3
	DefaultBuildQuality  = 3

	// DefaultRate is used for categories without a specific rate.
	DefaultRate = 0.15

	// FloorFraction is the minimum value as a share of the original price.
	FloorFraction = 0.05
)

// annualRates holds the per-category yearly depreciation.
var annualRates = map[string]float64{
	"Laptop":          0.20,
	"Smartphone":      0.25,
	"Tablet":          0.18,
	"TV":              0.12,
	"Refrigerator":    0.08,
	"Washing Machine": 0.10,
	"Air Conditioner": 0.12,
	"Microwave":       0.15,
}

// Input describes an item for estimation. Nil fields take the defaults.
type Input struct {
	Category      string   `json:"category"`
	OriginalPrice *float64 `json:"original_price"`
	UsedDuration  *float64 `json:"used_duration"`
	UserLifespan  *float64 `json:"user_lifespan"`
	Condition     *int     `json:"condition"`
	BuildQuality  *int     `json:"build_quality"`
}

// Rate returns the annual depreciation rate for a category.
func Rate(category string) float64 {
	if r, ok := annualRates[category]; ok {
		return r
	}
	return DefaultRate
}

// Estimate returns the depreciated value rounded to the nearest integer.
// Negative amounts and scores outside 1-5 count as missing.
func Estimate(in Input) float64 {
	in = in.valid()
	price := orFloat(in.OriginalPrice, DefaultOriginalPrice)
	used := orFloat(in.UsedDuration, DefaultUsedDuration)
	lifespan := orFloat(in.UserLifespan, DefaultUserLifespan)
	condition := float64(orInt(in.Condition, DefaultCondition))
	quality := float64(orInt(in.BuildQuality, DefaultBuildQuality))

	years := math.Min(used, lifespan)
	value := price * math.Pow(1-Rate(in.Category), years)
	value *= math.Max(0.1, condition/5)
	value *= math.Max(0.8, 0.8+(quality-3)*0.1)
	value = math.Max(value, price*FloorFraction)

	return math.Round(value)
}

func (in Input) valid() Input {
	if in.OriginalPrice != nil && *in.OriginalPrice < 0 {
		in.OriginalPrice = nil
	}
	if in.UsedDuration != nil && *in.UsedDuration < 0 {
		in.UsedDuration = nil
	}
	if in.UserLifespan != nil && *in.UserLifespan < 0 {
		in.UserLifespan = nil
	}
	if in.Condition != nil && (*in.Condition < 1 || *in.Condition > 5) {
		in.Condition = nil
	}
	if in.BuildQuality != nil && (*in.BuildQuality < 1 || *in.BuildQuality > 5) {
		in.BuildQuality = nil
	}
	return in
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
