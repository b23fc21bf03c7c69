package records

import (
	"fmt"
	"maps"
	"sync"
)

// Datasets is a concurrent safe collection of per-system datasets. Sources
// fill it from separate goroutines during a fetch; afterwards the run reads
// it single-threaded.
type Datasets struct {
	mu   sync.RWMutex
	sets map[System]*Dataset
}

// DatasetsOption defines a function that configures a Datasets instance.
type DatasetsOption func(*Datasets)

// WithDatasetsMap initializes the collection with existing datasets.
func WithDatasetsMap(sets map[System]*Dataset) DatasetsOption {
	return func(d *Datasets) {
		if sets != nil {
			d.sets = make(map[System]*Dataset, len(sets))
			maps.Copy(d.sets, sets)
		}
	}
}

// NewDatasets creates a new Datasets collection with optional configuration.
func NewDatasets(opts ...DatasetsOption) *Datasets {
	d := &Datasets{
		sets: make(map[System]*Dataset, len(AllSystems())),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Get returns a dataset by system and whether it exists.
func (d *Datasets) Get(system System) (*Dataset, bool) {
	d.mu.RLock()
	set, ok := d.sets[system]
	d.mu.RUnlock()
	return set, ok
}

// Set stores a dataset under its system. Returns an error if the dataset is
// nil or tagged with an unknown system.
func (d *Datasets) Set(set *Dataset) error {
	if set == nil {
		return fmt.Errorf("dataset cannot be nil")
	}
	if !set.System.IsValid() {
		return fmt.Errorf("dataset has unknown system %q", set.System)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sets[set.System] = set
	return nil
}

// Exists checks if a dataset exists without returning it.
func (d *Datasets) Exists(system System) bool {
	d.mu.RLock()
	_, exists := d.sets[system]
	d.mu.RUnlock()
	return exists
}

// Len returns the number of datasets.
func (d *Datasets) Len() int {
	d.mu.RLock()
	length := len(d.sets)
	d.mu.RUnlock()
	return length
}

// Systems returns the systems present, in reconciliation order.
func (d *Datasets) Systems() []System {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]System, 0, len(d.sets))
	for _, s := range AllSystems() {
		if _, ok := d.sets[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Complete reports whether both systems have reported a dataset.
func (d *Datasets) Complete() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, s := range AllSystems() {
		if _, ok := d.sets[s]; !ok {
			return false
		}
	}
	return true
}
