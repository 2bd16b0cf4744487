package field

import (
	"fmt"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/magsys"
)

// EvaluationPoints is the ragged sample grid of a Field. Observation i owns
// the flat range [Offsets[i], Offsets[i+1]) of Times, Waves, TransDWaves and
// Energies. The slices are shared and must not be modified.
type EvaluationPoints struct {
	Sizes   []int
	Offsets []int

	Times       []float64 // days
	Waves       []float64 // Å
	TransDWaves []float64 // Å
	Energies    []float64 // erg
}

func newEvaluationPoints(times []float64, bands []*bandpass.Bandpass) *EvaluationPoints {
	p := &EvaluationPoints{
		Sizes:   make([]int, len(bands)),
		Offsets: make([]int, len(bands)+1),
	}
	for i, b := range bands {
		p.Sizes[i] = b.Len()
		p.Offsets[i+1] = p.Offsets[i] + p.Sizes[i]
	}

	total := p.Offsets[len(bands)]
	p.Times = make([]float64, 0, total)
	p.Waves = make([]float64, 0, total)
	p.TransDWaves = make([]float64, 0, total)

	for i, b := range bands {
		for range p.Sizes[i] {
			p.Times = append(p.Times, times[i])
		}
		p.Waves = append(p.Waves, b.Wave()...)
		p.TransDWaves = append(p.TransDWaves, b.TransDWave()...)
	}
	p.Energies = magsys.PhotonEnergy(p.Waves)

	return p
}

// Len returns the number of observations
func (p *EvaluationPoints) Len() int {
	return len(p.Sizes)
}

// Total returns the number of flat samples
func (p *EvaluationPoints) Total() int {
	return p.Offsets[len(p.Offsets)-1]
}

// Segment returns the flat range of observation i
func (p *EvaluationPoints) Segment(i int) (lo, hi int) {
	return p.Offsets[i], p.Offsets[i+1]
}

// ReduceAdd sums values over each observation's segment, in observation
// order. Empty segments sum to zero. values must have Total elements.
func (p *EvaluationPoints) ReduceAdd(values []float64) []float64 {
	if len(values) != p.Total() {
		panic(fmt.Sprintf("field: reducing %d values over %d samples", len(values), p.Total()))
	}

	sums := make([]float64, p.Len())
	for i := range sums {
		lo, hi := p.Segment(i)
		for _, v := range values[lo:hi] {
			sums[i] += v
		}
	}
	return sums
}
