// Package sensor provides readings from the kiosk's material detection
// hardware. The only implementation today is a simulator that produces
// randomized readings in the ranges the physical sensor reports.
package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/trash2cash/station-platform/pkg/reward"
)

const (
	minWeightKg = 0.1
	maxWeightKg = 5.0
)

// Reading is a single detection event from the sensor.
type Reading struct {
	Material reward.Material `json:"material"`
	Weight   float64         `json:"weight"`
	ReadAt   time.Time       `json:"read_at"`
}

// Source produces material readings.
type Source interface {
	Read() Reading
}

// Simulator generates randomized readings standing in for real hardware.
// It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time

	materials []reward.Material
}

var _ Source = (*Simulator)(nil)

// NewSimulator returns a simulator seeded from seed. The same seed yields
// the same sequence of readings, which makes demos and tests repeatable.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
		materials: []reward.Material{
			reward.MaterialPlastic,
			reward.MaterialGlass,
			reward.MaterialMetal,
			reward.MaterialPaper,
		},
	}
}

// Read returns the next simulated reading. Weights fall in the
// detection range of the physical sensor, rounded to two decimals.
func (s *Simulator) Read() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	material := s.materials[s.rng.Intn(len(s.materials))]
	weight := minWeightKg + s.rng.Float64()*(maxWeightKg-minWeightKg)
	weight = math.Round(weight*100) / 100

	return Reading{
		Material: material,
		Weight:   weight,
		ReadAt:   s.now(),
	}
}
