// Package reward computes the rupiah reward for a recyclable material
// submission from a fixed per-material rate table.
package reward

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput indicates an unrecognized material or a non-positive weight.
var ErrInvalidInput = errors.New("invalid material or weight")

// Material identifies a recyclable material category.
type Material string

// Recognized material categories.
const (
	MaterialPlastic Material = "plastic"
	MaterialMetal   Material = "metal"
	MaterialPaper   Material = "paper"
	MaterialGlass   Material = "glass"
	MaterialOther   Material = "other"
)

// Materials lists all recognized categories.
var Materials = []Material{
	MaterialPlastic, MaterialMetal, MaterialPaper, MaterialGlass, MaterialOther,
}

// Valid reports whether m is a recognized material.
func (m Material) Valid() bool {
	switch m {
	case MaterialPlastic, MaterialMetal, MaterialPaper, MaterialGlass, MaterialOther:
		return true
	}
	return false
}

// DefaultRates is the default rate table in rupiah per kilogram.
var DefaultRates = map[Material]int64{
	MaterialPlastic: 2000,
	MaterialMetal:   3000,
	MaterialGlass:   1600,
	MaterialPaper:   1000,
	MaterialOther:   500,
}

// Calculator maps (material, weight) pairs to rupiah rewards. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	rates map[Material]int64
}

// NewCalculator creates a calculator with the given rate table. A nil or empty
// table falls back to DefaultRates.
func NewCalculator(rates map[Material]int64) *Calculator {
	if len(rates) == 0 {
		rates = DefaultRates
	}
	owned := make(map[Material]int64, len(rates))
	for m, r := range rates {
		owned[m] = r
	}
	return &Calculator{rates: owned}
}

// Calculate returns the reward in rupiah for weight kilograms of material,
// rounded to the nearest rupiah.
func (c *Calculator) Calculate(material Material, weight float64) (int64, error) {
	if weight <= 0 {
		return 0, fmt.Errorf("%w: weight %v must be positive", ErrInvalidInput, weight)
	}
	rate, ok := c.rates[material]
	if !ok {
		return 0, fmt.Errorf("%w: unknown material %q", ErrInvalidInput, material)
	}
	return int64(math.Round(float64(rate) * weight)), nil
}

// Rate returns the configured rupiah-per-kilogram rate for material.
func (c *Calculator) Rate(material Material) (int64, bool) {
	rate, ok := c.rates[material]
	return rate, ok
}
