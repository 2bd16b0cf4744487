package effects

import (
	"math"

	"github.com/roman-kulish/lcsim/internal/cosmology"
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/units"
)

var cmPerParsec = func() float64 {
	f, err := units.Parsec.ConversionFactor(units.Centimeter)
	if err != nil {
		panic(err)
	}
	return f
}()

// dim divides flux by 4π·d², d in cm
func dim(flux []float64, d float64) []float64 {
	area := 4 * math.Pi * d * d
	for i := range flux {
		flux[i] /= area
	}
	return flux
}

// fluxUnitAt is the unit of a luminosity density observed through a sphere
// measured in cm²
func fluxUnitAt(inner units.Unit) units.Unit {
	return inner.Div(units.Centimeter.Pow(2))
}

// DefaultDistance is the distance at which absolute magnitudes are defined, pc
const DefaultDistance = 10

// Distance places the source at a fixed distance in pc:
// flux = inner / (4π·distance²).
type Distance struct {
	wrapped
	distance string
}

func NewDistance(inner source.Source, opts ...Option) (*Distance, error) {
	o := applyOptions(opts)

	distance := o.prefix + "distance"
	w, err := wrap(inner, source.Param{Name: distance, Default: []float64{DefaultDistance}, Size: 1, Unit: units.Parsec})
	if err != nil {
		return nil, err
	}
	return &Distance{wrapped: w, distance: distance}, nil
}

func (e *Distance) Flux(phase, wave []float64) []float64 {
	return dim(e.inner.Flux(phase, wave), e.state.Scalar(e.distance)*cmPerParsec)
}

func (e *Distance) FluxUnit() units.Unit {
	return fluxUnitAt(e.inner.FluxUnit())
}

// Cosmological dims the source by the comoving transverse distance to
// z_cosmo: flux = inner / (4π·D(z_cosmo)²).
type Cosmological struct {
	wrapped
	cosmo cosmology.Distancer
	z     string
}

func NewCosmological(inner source.Source, cosmo cosmology.Distancer, opts ...Option) (*Cosmological, error) {
	o := applyOptions(opts)

	z := o.prefix + "z_cosmo"
	w, err := wrap(inner, source.Scalar(z, 0))
	if err != nil {
		return nil, err
	}
	return &Cosmological{wrapped: w, cosmo: cosmo, z: z}, nil
}

func (e *Cosmological) Flux(phase, wave []float64) []float64 {
	d, err := e.cosmo.ComovingTransverseDistance(e.state.Scalar(e.z)).In(units.Centimeter)
	if err != nil {
		panic(err) // a Distancer always returns a length
	}
	return dim(e.inner.Flux(phase, wave), d[0])
}

func (e *Cosmological) FluxUnit() units.Unit {
	return fluxUnitAt(e.inner.FluxUnit())
}
