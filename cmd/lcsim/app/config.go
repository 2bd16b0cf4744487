package app

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/lcsim/internal/survey"
)

const (
	EffectRedshift     EffectType = "redshift"
	EffectPhaseShift   EffectType = "phase_shift"
	EffectExtinction   EffectType = "extinction"
	EffectDistance     EffectType = "distance"
	EffectCosmological EffectType = "cosmological"
)

type EffectType string

const (
	OutputFlux       OutputQuantity = "flux"
	OutputCounts     OutputQuantity = "counts"
	OutputFluxCal    OutputQuantity = "fluxcal"
	OutputCountsCal  OutputQuantity = "countscal"
	OutputMag        OutputQuantity = "mag"
	OutputSignal     OutputQuantity = "signal"
	OutputFluxCalErr OutputQuantity = "fluxcalerr"
)

type OutputQuantity string

var validOutputs = []OutputQuantity{
	OutputFlux, OutputCounts, OutputFluxCal, OutputCountsCal, OutputMag, OutputSignal, OutputFluxCalErr,
}

// Config represents the main application configuration
type Config struct {
	Settings     Settings             `yaml:"settings"`
	Registry     RegistryConfig       `yaml:"registry"`
	Model        ModelConfig          `yaml:"model"`
	Bands        BandsConfig          `yaml:"bands"`
	Observations []survey.Observation `yaml:"observations"`
	Output       OutputConfig         `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" env:"LCSIM_LOG_LEVEL"`
}

// RegistryConfig locates the reference data
type RegistryConfig struct {
	Path string `yaml:"path" env:"LCSIM_REGISTRY"`
}

// ModelConfig describes the source, its effects and the parameter sets to
// evaluate
type ModelConfig struct {
	Source    string           `yaml:"source"`
	MagSys    MagSysConfig     `yaml:"magsys"`
	Effects   []EffectConfig   `yaml:"effects"`
	Cosmology *CosmologyConfig `yaml:"cosmology"`
	Params    ParamSet         `yaml:"params"`
	Batch     []ParamSet       `yaml:"batch"`
}

// ParamSet maps parameter names to values. In YAML a scalar parameter may be
// written as a plain number instead of a one-element list.
type ParamSet map[string][]float64

func (p *ParamSet) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}

	set := make(ParamSet, len(raw))
	for name, node := range raw {
		if node.Kind == yaml.ScalarNode {
			var v float64
			if err := node.Decode(&v); err != nil {
				return fmt.Errorf("parameter '%s': %w", name, err)
			}
			set[name] = []float64{v}
			continue
		}

		var v []float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("parameter '%s': %w", name, err)
		}
		set[name] = v
	}

	*p = set
	return nil
}

// MagSysConfig names a zero-point system. Offsets, if set, turn it into a
// per-band composite system shifted by the given magnitudes.
type MagSysConfig struct {
	Name    string             `yaml:"name"`
	Offsets map[string]float64 `yaml:"offsets"`
}

// EffectConfig represents a single effect wrapping the source. Effects are
// applied in the order listed: the first wraps the source directly.
type EffectConfig struct {
	Type   EffectType `yaml:"type"`
	Prefix string     `yaml:"prefix"`
	Law    string     `yaml:"law"` // extinction only
}

// CosmologyConfig parametrizes the flat ΛCDM cosmology used by the
// cosmological distance effect
type CosmologyConfig struct {
	H0  float64 `yaml:"h0"`
	Om0 float64 `yaml:"om0"`
}

// BandsConfig represents bandpass loading settings
type BandsConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// OutputConfig represents what to compute and where to write it
type OutputConfig struct {
	Quantity OutputQuantity `yaml:"quantity"`
	File     string         `yaml:"file"`
}

// LoadConfig reads the YAML configuration file at path, applies environment
// overrides and validates the result
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := Config{
		Settings: Settings{LogLevel: "info"},
		Output:   OutputConfig{Quantity: OutputFlux},
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing '%s': %w", path, err)
	}

	if err = env.Parse(&c.Settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err = env.Parse(&c.Registry); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports the first configuration problem found
func (c *Config) Validate() error {
	switch {
	case c.Registry.Path == "":
		return errors.New("registry path is required")
	case c.Model.Source == "":
		return errors.New("model source is required")
	case len(c.Observations) == 0:
		return errors.New("at least one observation is required")
	case !slices.Contains(validOutputs, c.Output.Quantity):
		return fmt.Errorf("invalid output quantity: %s", c.Output.Quantity)
	}

	for i, e := range c.Model.Effects {
		switch e.Type {
		case EffectRedshift, EffectPhaseShift, EffectDistance, EffectCosmological:
		case EffectExtinction:
			if e.Law == "" {
				return fmt.Errorf("effect %d: extinction law is required", i)
			}
		default:
			return fmt.Errorf("effect %d: unknown type '%s'", i, e.Type)
		}
	}

	switch c.Output.Quantity {
	case OutputFluxCal, OutputCountsCal, OutputMag, OutputSignal:
		if c.Model.MagSys.Name == "" {
			return fmt.Errorf("output '%s' requires a magnitude system", c.Output.Quantity)
		}
	}
	return nil
}
