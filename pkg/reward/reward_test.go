package reward

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_DefaultRates(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		material Material
		weight   float64
		want     int64
	}{
		{MaterialPlastic, 2.0, 4000},
		{MaterialMetal, 1.0, 3000},
		{MaterialGlass, 0.5, 800},
		{MaterialPaper, 3.0, 3000},
		{MaterialOther, 2.0, 1000},
	}

	for _, tt := range tests {
		got, err := calc.Calculate(tt.material, tt.weight)
		require.NoError(t, err, "material %s", tt.material)
		assert.Equal(t, tt.want, got, "material %s weight %v", tt.material, tt.weight)
	}
}

func TestCalculate_Rounding(t *testing.T) {
	calc := NewCalculator(map[Material]int64{MaterialPlastic: 3})

	got, err := calc.Calculate(MaterialPlastic, 0.5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestCalculate_ZeroWeight(t *testing.T) {
	calc := NewCalculator(nil)

	_, err := calc.Calculate(MaterialPlastic, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculate_NegativeWeight(t *testing.T) {
	calc := NewCalculator(nil)

	_, err := calc.Calculate(MaterialMetal, -1.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculate_UnknownMaterial(t *testing.T) {
	calc := NewCalculator(nil)

	_, err := calc.Calculate(Material("unknown-material"), 1.0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculate_CustomRates(t *testing.T) {
	calc := NewCalculator(map[Material]int64{MaterialGlass: 1234})

	got, err := calc.Calculate(MaterialGlass, 2.0)
	require.NoError(t, err)
	assert.Equal(t, int64(2468), got)

	// Materials missing from a custom table are not recognized.
	_, err = calc.Calculate(MaterialPlastic, 1.0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewCalculator(nil)

	first, err := calc.Calculate(MaterialPaper, 1.7)
	require.NoError(t, err)
	for range 100 {
		got, err := calc.Calculate(MaterialPaper, 1.7)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestCalculate_ConcurrentUse(t *testing.T) {
	calc := NewCalculator(nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				got, err := calc.Calculate(MaterialPlastic, 2.0)
				if err != nil || got != 4000 {
					t.Errorf("Calculate = %d, %v; want 4000, nil", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestMaterialValid(t *testing.T) {
	for _, m := range Materials {
		assert.True(t, m.Valid(), "material %s", m)
	}
	assert.False(t, Material("cardboard").Valid())
	assert.False(t, Material("").Valid())
}

func TestRate(t *testing.T) {
	calc := NewCalculator(nil)

	rate, ok := calc.Rate(MaterialPlastic)
	assert.True(t, ok)
	assert.Equal(t, int64(2000), rate)

	_, ok = calc.Rate(Material("nope"))
	assert.False(t, ok)
}
