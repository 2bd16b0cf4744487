// Package bandpass models photometric filter transmission curves and the
// integration weights derived from them.
package bandpass

import (
	"fmt"
	"sync"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/interp"
)

// Bandpass is an immutable filter transmission curve sampled on a strictly
// increasing wavelength grid in Å. Bandpasses are identified by name.
//
// Integration uses the midpoint rule: Wave holds the interval midpoints,
// DWave the interval widths and Trans the interpolated transmission at each
// midpoint. They are computed on first access.
type Bandpass struct {
	name  string
	table *interp.Linear1D

	once       sync.Once
	wave       []float64
	dwave      []float64
	trans      []float64
	transDWave []float64
}

// New validates the grid and creates a bandpass from copies of wave and trans
func New(name string, wave, trans []float64) (*Bandpass, error) {
	if name == "" {
		return nil, errdefs.NewConfigError("bandpass: empty name")
	}
	if len(wave) < 2 {
		return nil, errdefs.ConfigErrorf("bandpass '%s': need at least 2 wavelength nodes, got %d", name, len(wave))
	}
	if len(wave) != len(trans) {
		return nil, errdefs.ConfigErrorf("bandpass '%s': %d wavelengths but %d transmission values", name, len(wave), len(trans))
	}
	if err := interp.CheckAxis(fmt.Sprintf("bandpass '%s' wavelengths", name), wave); err != nil {
		return nil, err
	}

	var positive bool
	for i, t := range trans {
		if t < 0 {
			return nil, errdefs.ConfigErrorf("bandpass '%s': negative transmission %g at %g Å", name, t, wave[i])
		}
		positive = positive || t > 0
	}
	if !positive {
		return nil, errdefs.ConfigErrorf("bandpass '%s': transmission is zero everywhere", name)
	}

	table, err := interp.NewLinear1D(wave, trans)
	if err != nil {
		return nil, err
	}
	return &Bandpass{name: name, table: table}, nil
}

func (b *Bandpass) Name() string {
	return b.name
}

// Linear returns the transmission at each wavelength. Wavelengths outside the
// grid get the boundary transmission.
func (b *Bandpass) Linear(wave []float64) []float64 {
	return b.table.Map(wave, nil)
}

func (b *Bandpass) MinWave() float64 {
	return b.table.X()[0]
}

func (b *Bandpass) MaxWave() float64 {
	x := b.table.X()
	return x[len(x)-1]
}

// Nodes returns the wavelength grid the bandpass was constructed with
func (b *Bandpass) Nodes() []float64 {
	return b.table.X()
}

// Wave returns the integration sample wavelengths. The slice must not be
// modified.
func (b *Bandpass) Wave() []float64 {
	b.derive()
	return b.wave
}

func (b *Bandpass) DWave() []float64 {
	b.derive()
	return b.dwave
}

func (b *Bandpass) Trans() []float64 {
	b.derive()
	return b.trans
}

// TransDWave returns the integration weights Trans·DWave
func (b *Bandpass) TransDWave() []float64 {
	b.derive()
	return b.transDWave
}

// Len returns the number of integration samples
func (b *Bandpass) Len() int {
	return len(b.table.X()) - 1
}

func (b *Bandpass) derive() {
	b.once.Do(func() {
		x := b.table.X()
		n := len(x) - 1

		b.wave = make([]float64, n)
		b.dwave = make([]float64, n)
		for i := 0; i < n; i++ {
			b.wave[i] = (x[i] + x[i+1]) / 2
			b.dwave[i] = x[i+1] - x[i]
		}

		b.trans = b.table.Map(b.wave, nil)
		b.transDWave = make([]float64, n)
		for i := range b.transDWave {
			b.transDWave[i] = b.trans[i] * b.dwave[i]
		}
	})
}

func (b *Bandpass) String() string {
	return fmt.Sprintf("Bandpass(%s, %g-%g Å)", b.name, b.MinWave(), b.MaxWave())
}
