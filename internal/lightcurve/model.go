// Package lightcurve evaluates a source over a field of observations. Every
// call evaluates the source once over the field's flat sample grid, weights
// the result by the bandpass integration factors and sums it back to one
// value per observation.
package lightcurve

import (
	"fmt"

	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/field"
	"github.com/roman-kulish/lcsim/internal/magsys"
	"github.com/roman-kulish/lcsim/internal/source"
	"github.com/roman-kulish/lcsim/internal/units"
)

// Model binds a source to a field. A Model is not safe for concurrent use
// because evaluation updates the source's parameters.
type Model struct {
	Source source.Source
	Field  *field.Field
}

func New(src source.Source, f *field.Field) *Model {
	return &Model{Source: src, Field: f}
}

// BandFluxUnit returns the unit of BandFlux: source flux unit times Å
func (m *Model) BandFluxUnit() units.Unit {
	return m.Source.FluxUnit().Mul(units.Angstrom)
}

// BandCountsUnit returns the unit of BandCounts: BandFluxUnit per erg
func (m *Model) BandCountsUnit() units.Unit {
	return m.BandFluxUnit().Div(units.Erg)
}

// weighted evaluates the source at the field's samples with p applied and
// multiplies by the integration weights
func (m *Model) weighted(p source.Params) ([]float64, *field.EvaluationPoints, error) {
	pts := m.Field.Points()

	flux, err := source.Evaluate(m.Source, pts.Times, pts.Waves, p)
	if err != nil {
		return nil, nil, err
	}
	if len(flux) != pts.Total() {
		return nil, nil, errdefs.ConfigErrorf("source returned %d values for %d samples", len(flux), pts.Total())
	}

	for i := range flux {
		flux[i] *= pts.TransDWaves[i]
	}
	return flux, pts, nil
}

// BandFlux returns Σ flux·T·Δλ for every observation
func (m *Model) BandFlux(p source.Params) (units.Quantity, error) {
	w, pts, err := m.weighted(p)
	if err != nil {
		return units.Quantity{}, err
	}
	return units.Wrap(pts.ReduceAdd(w), m.BandFluxUnit()), nil
}

// BandCounts returns Σ flux·T·Δλ / (h·c/λ) for every observation
func (m *Model) BandCounts(p source.Params) (units.Quantity, error) {
	w, pts, err := m.weighted(p)
	if err != nil {
		return units.Quantity{}, err
	}
	for i := range w {
		w[i] /= pts.Energies[i]
	}
	return units.Wrap(pts.ReduceAdd(w), m.BandCountsUnit()), nil
}

// BandFluxCal returns BandFlux in units of each band's zero-point flux
func (m *Model) BandFluxCal(ms magsys.MagSys, p source.Params) ([]float64, error) {
	flux, err := m.BandFlux(p)
	if err != nil {
		return nil, err
	}
	zp, err := m.Field.ZPFluxes(ms)
	if err != nil {
		return nil, err
	}
	return calibrate(flux, zp)
}

// BandCountsCal returns BandCounts in units of each band's zero-point count
func (m *Model) BandCountsCal(ms magsys.MagSys, p source.Params) ([]float64, error) {
	counts, err := m.BandCounts(p)
	if err != nil {
		return nil, err
	}
	zp, err := m.Field.ZPCounts(ms)
	if err != nil {
		return nil, err
	}
	return calibrate(counts, zp)
}

// BandMag returns -2.5·log10(counts/zp_counts) for every observation
func (m *Model) BandMag(ms magsys.MagSys, p source.Params) ([]float64, error) {
	cal, err := m.BandCountsCal(ms, p)
	if err != nil {
		return nil, err
	}
	for i, c := range cal {
		cal[i] = units.LinearToMag(c)
	}
	return cal, nil
}

// BandFluxBatch evaluates BandFlux once per parameter set, in order.
// Parameters not named in a set keep the value left by the previous one.
func (m *Model) BandFluxBatch(batch []source.Params) ([]units.Quantity, error) {
	out := make([]units.Quantity, len(batch))
	for i, p := range batch {
		q, err := m.BandFlux(p)
		if err != nil {
			return nil, fmt.Errorf("parameter set %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}

func calibrate(q, zp units.Quantity) ([]float64, error) {
	ratio, err := q.Div(zp).Dimensionless()
	if err != nil {
		return nil, fmt.Errorf("calibrating against zero points: %w", err)
	}
	return ratio, nil
}
