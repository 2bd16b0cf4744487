package app

import (
	"slices"

	"github.com/roman-kulish/lcsim/internal/bandpass"
	"github.com/roman-kulish/lcsim/internal/registry"
)

// demoStep is the wavelength grid spacing of demo bands, Å
const demoStep = 50

// demoBands are flat top-hat filters roughly covering the optical
var demoBands = map[string][2]float64{
	"u": {3200, 4000},
	"g": {4000, 5500},
	"r": {5500, 7000},
	"i": {7000, 8500},
	"z": {8500, 10000},
}

// DemoBandNames returns the demo band names ordered by wavelength
func DemoBandNames() []string {
	names := make([]string, 0, len(demoBands))
	for name := range demoBands {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return int(demoBands[a][0] - demoBands[b][0])
	})
	return names
}

// DemoBand returns the registry dataset of a demo top-hat band. Transmission
// is one inside the band and drops to zero at the outer nodes.
func DemoBand(name string) *registry.Dataset {
	edges := demoBands[name]

	var wave, trans []float64
	for w := edges[0] - demoStep; w <= edges[1]+demoStep; w += demoStep {
		t := 1.0
		if w < edges[0] || w > edges[1] {
			t = 0
		}
		wave = append(wave, w)
		trans = append(trans, t)
	}

	return &registry.Dataset{
		Name: bandpass.DatasetPrefix + name,
		Arrays: map[string]registry.Array{
			"wave":  registry.Vector(wave),
			"trans": registry.Vector(trans),
		},
	}
}
