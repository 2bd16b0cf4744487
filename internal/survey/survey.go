// Package survey holds measured photometry for a field of observations and
// the noise model that predicts its uncertainties.
package survey

import (
	"fmt"
	"math"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/errdefs"
	"github.com/roman-kulish/lcsim/internal/field"
	"github.com/roman-kulish/lcsim/internal/instrument"
	"github.com/roman-kulish/lcsim/internal/units"
)

// ZPCAL is the zero point of FLUXCAL values, mag
const ZPCAL = 27.5

// NoiseUnit is the unit of per-pixel CCD and sky backgrounds
var NoiseUnit = units.Scaled(units.ADU.Div(units.Pixel), 1, "ADU/px")

// Observation is a single photometric measurement as ingested from a
// survey table. Zero values of the optional noise fields mean not measured.
type Observation struct {
	Time       float64 `json:"time" yaml:"time"`                                 // Days relative to peak
	Band       string  `json:"band" yaml:"band"`                                 // Bandpass name
	FluxCal    float64 `json:"fluxcal,omitempty" yaml:"fluxcal,omitempty"`       // Flux at zero point ZPCAL
	FluxCalErr float64 `json:"fluxcalerr,omitempty" yaml:"fluxcalerr,omitempty"` // Reported uncertainty of FluxCal
	ZPMean     float64 `json:"zpMean,omitempty" yaml:"zp_mean,omitempty"`        // Zero point, mag
	ZPStd      float64 `json:"zpStd,omitempty" yaml:"zp_std,omitempty"`          // Zero point scatter, mag
	CCDSigma   float64 `json:"ccdSigma,omitempty" yaml:"ccd_sigma,omitempty"`    // Read noise, e- per px^(1/2)
	SkySigma   float64 `json:"skySigma,omitempty" yaml:"sky_sigma,omitempty"`    // Sky noise, ADU per px^(1/2)
	Gain       float64 `json:"gain,omitempty" yaml:"gain,omitempty"`             // ADU per e-
	PSF1       float64 `json:"psf1,omitempty" yaml:"psf1,omitempty"`             // Primary PSF width, px^(1/2)
	PSF2       float64 `json:"psf2,omitempty" yaml:"psf2,omitempty"`             // Secondary PSF width, px^(1/2)
	PSFRatio   float64 `json:"psfRatio,omitempty" yaml:"psf_ratio,omitempty"`    // Flux ratio of the PSF components
}

// SurveyData associates a Field with measured photometry and the noise
// parameters of every observation
type SurveyData struct {
	Field *field.Field

	FluxCal    []float64
	FluxCalErr []float64

	ZPMean []float64
	ZPStd  []float64

	CCDNoise units.Quantity // NoiseUnit
	SkyNoise units.Quantity // NoiseUnit
	Area     units.Quantity // px
	Gain     units.Quantity // instrument.Gain
}

// FromObservations builds SurveyData from ingested records, resolving band
// names in bands. Read noise is converted to ADU/px with the gain and PSF
// widths to effective areas.
func FromObservations(bands bandpass.Set, obs []Observation) (*SurveyData, error) {
	if len(obs) == 0 {
		return nil, errdefs.NewConfigError("survey: no observations")
	}

	n := len(obs)
	times := make([]float64, n)
	names := make([]string, n)
	s := &SurveyData{
		FluxCal:    make([]float64, n),
		FluxCalErr: make([]float64, n),
		ZPMean:     make([]float64, n),
		ZPStd:      make([]float64, n),
	}
	ccd := make([]float64, n)
	sky := make([]float64, n)
	gain := make([]float64, n)
	area := make([]float64, n)

	for i, o := range obs {
		times[i] = o.Time
		names[i] = o.Band
		s.FluxCal[i] = o.FluxCal
		s.FluxCalErr[i] = o.FluxCalErr
		s.ZPMean[i] = o.ZPMean
		s.ZPStd[i] = o.ZPStd

		gain[i] = o.Gain
		ccd[i] = o.CCDSigma * o.CCDSigma * o.Gain
		sky[i] = o.SkySigma * o.SkySigma

		if o.PSF1 > 0 {
			a, err := instrument.PSFToArea(
				units.Scalar(o.PSF1, instrument.LinearPixel),
				units.Scalar(o.PSF2, instrument.LinearPixel),
				[]float64{o.PSFRatio},
			)
			if err != nil {
				return nil, fmt.Errorf("observation %d: %w", i, err)
			}
			area[i] = a.At(0)
		}
	}

	b, err := bands.Lookup(names)
	if err != nil {
		return nil, err
	}
	if s.Field, err = field.New(times, b); err != nil {
		return nil, err
	}

	s.CCDNoise = units.Wrap(ccd, NoiseUnit)
	s.SkyNoise = units.Wrap(sky, NoiseUnit)
	s.Area = units.Wrap(area, units.Pixel)
	s.Gain = units.Wrap(gain, instrument.Gain)

	return s, nil
}

// SrcFlux returns the measured source flux in ADU,
// fluxcal·10^(0.4·(zp_mean - ZPCAL))
func (s *SurveyData) SrcFlux() units.Quantity {
	flux := make([]float64, len(s.FluxCal))
	for i, f := range s.FluxCal {
		flux[i] = f * math.Pow(10, 0.4*(s.ZPMean[i]-ZPCAL))
	}
	return units.Wrap(flux, units.ADU)
}

// BgFlux returns the background under the aperture in ADU,
// (ccd_noise + sky_noise)·area
func (s *SurveyData) BgFlux() (units.Quantity, error) {
	noise, err := s.CCDNoise.Add(s.SkyNoise)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("combining backgrounds: %w", err)
	}
	bg, err := noise.Mul(s.Area).To(units.ADU)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("background: %w", err)
	}
	return bg, nil
}

// CalcFluxCalErr predicts the FLUXCAL uncertainty from Poisson noise on the
// source and background electrons:
//
//	σ = sqrt((src + bg)/gain)·gain · 10^(-0.4·(zp_mean - ZPCAL))
func (s *SurveyData) CalcFluxCalErr() ([]float64, error) {
	if err := s.checkGain(); err != nil {
		return nil, err
	}
	bg, err := s.BgFlux()
	if err != nil {
		return nil, err
	}
	total, err := s.SrcFlux().Add(bg)
	if err != nil {
		return nil, fmt.Errorf("adding background: %w", err)
	}
	electrons, err := total.Div(s.Gain).In(units.Electron)
	if err != nil {
		return nil, fmt.Errorf("applying gain: %w", err)
	}
	gain, err := s.Gain.In(instrument.Gain)
	if err != nil {
		return nil, err
	}

	sigma := make([]float64, len(electrons))
	for i, e := range electrons {
		sigma[i] = math.Sqrt(e) * gain[i] * math.Pow(10, -0.4*(s.ZPMean[i]-ZPCAL))
	}
	return sigma, nil
}

// Signal predicts the detector signal in electrons for model calibrated
// counts, using the survey zero points, background and gain
func (s *SurveyData) Signal(countscal []float64) ([]float64, error) {
	if err := s.checkGain(); err != nil {
		return nil, err
	}
	bg, err := s.BgFlux()
	if err != nil {
		return nil, err
	}
	return instrument.Signal(countscal, s.ZPMean, bg, s.Gain)
}

func (s *SurveyData) checkGain() error {
	for i := range s.Gain.Len() {
		if s.Gain.At(i) <= 0 {
			return errdefs.ConfigErrorf("survey: observation %d has no gain", i)
		}
	}
	return nil
}
