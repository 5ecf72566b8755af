package dataset

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/security"
)

// Manifest lists the sweeps available for one sample.
type Manifest struct {
	Sample  string                  `json:"sample"`
	Sensors map[string]SensorSweeps `json:"sensors"`
}

// SensorSweeps is one sensor's sweeps, newest first.
type SensorSweeps struct {
	// Fields names the float32 columns of .bin sweeps. PCD sweeps carry
	// their own field names and ignore it.
	Fields []string `json:"fields,omitempty"`
	Sweeps []Sweep  `json:"sweeps"`
}

// Sweep is a single sensor capture.
type Sweep struct {
	Path      string    `json:"path"`
	Transform []float64 `json:"transform,omitempty"` // 16 values, row-major; empty is identity
	TimeLag   float64   `json:"time_lag"`
}

// Identity is the 4x4 identity transform.
var Identity = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Pose returns the sweep's transform as a fixed-size matrix.
func (s Sweep) Pose() ([16]float64, error) {
	if len(s.Transform) == 0 {
		return Identity, nil
	}
	if len(s.Transform) != 16 {
		return [16]float64{}, fmt.Errorf("transform for %s has %d values, want 16", s.Path, len(s.Transform))
	}
	var T [16]float64
	copy(T[:], s.Transform)
	return T, nil
}

// ManifestPath returns the manifest location for sample under root.
func ManifestPath(root, sample string) string {
	return filepath.Join(root, sample+".json")
}

// ReadManifest reads and checks the manifest for sample.
func ReadManifest(fsys fsutil.FileSystem, root, sample string) (*Manifest, error) {
	if sample == "" || strings.ContainsAny(sample, `/\`) {
		return nil, fmt.Errorf("invalid sample id %q", sample)
	}
	data, err := fsys.ReadFile(ManifestPath(root, sample))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", sample, err)
	}
	if m.Sample == "" {
		m.Sample = sample
	}
	for name, s := range m.Sensors {
		for i, sw := range s.Sweeps {
			if sw.Path == "" {
				return nil, fmt.Errorf("manifest %s: %s sweep %d has no path", sample, name, i)
			}
			if _, err := security.ResolveWithin(root, sw.Path); err != nil {
				return nil, fmt.Errorf("manifest %s: %s sweep %d: %w", sample, name, i, err)
			}
			if _, err := sw.Pose(); err != nil {
				return nil, fmt.Errorf("manifest %s: %w", sample, err)
			}
		}
	}
	return &m, nil
}

// WriteManifest writes m to <root>/<m.Sample>.json.
func WriteManifest(fsys fsutil.FileSystem, root string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := fsys.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create dataset root: %w", err)
	}
	return fsys.WriteFile(ManifestPath(root, m.Sample), data, 0644)
}

// ListSamples returns the ids of every manifest directly under root.
func ListSamples(fsys fsutil.FileSystem, root string) ([]string, error) {
	names, err := fsys.List(root, ".json")
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	ids := make([]string, 0, len(names))
	for _, n := range names {
		ids = append(ids, strings.TrimSuffix(n, filepath.Ext(n)))
	}
	return ids, nil
}
