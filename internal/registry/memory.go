package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roman-kulish/lcsim/internal/errdefs"
)

// Memory is an in-process Loader, used by tests and by callers that build
// reference data programmatically.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

func NewMemory(datasets ...*Dataset) (*Memory, error) {
	m := &Memory{datasets: make(map[string]*Dataset)}
	for _, d := range datasets {
		if err := m.Put(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Put validates and stores d, replacing any dataset with the same name
func (m *Memory) Put(d *Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.datasets[d.Name] = d
	return nil
}

func (m *Memory) Load(ctx context.Context, name string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.NewDataLoadError(name, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.datasets[name]
	if !ok {
		return nil, errdefs.NewDataLoadError(name, fmt.Errorf("dataset not found"))
	}
	return d, nil
}

// Names returns the stored dataset names in lexical order
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.datasets))
	for name := range m.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
