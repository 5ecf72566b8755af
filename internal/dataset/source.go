package dataset

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/security"
)

// DefaultMinDistance is the self-return radius removed around each sensor.
const DefaultMinDistance = 1.0

// ManifestSource reads samples described by manifests under Root.
// It implements occlusion.Source.
type ManifestSource struct {
	Root        string
	FS          fsutil.FileSystem
	MinDistance float64

	// Layouts overrides the channel layout per sensor. Sensors not listed
	// use LayoutFor.
	Layouts map[occlusion.SensorID][]string

	// RadarFilters applies DefaultRadarFilter to RADAR_* sweeps before
	// near points are removed.
	RadarFilters bool
}

// NewManifestSource returns a source over the OS filesystem.
func NewManifestSource(root string) *ManifestSource {
	return &ManifestSource{
		Root:        root,
		FS:          fsutil.OSFileSystem{},
		MinDistance: DefaultMinDistance,
	}
}

// LayoutFor returns the default channel layout for a sensor: radar
// channels for RADAR_* sensors and LiDAR channels otherwise.
func LayoutFor(s occlusion.SensorID) []string {
	if isRadar(s) {
		return occlusion.RadarChannels
	}
	return occlusion.LidarChannels
}

func (m *ManifestSource) layout(s occlusion.SensorID) []string {
	if l, ok := m.Layouts[s]; ok {
		return l
	}
	return LayoutFor(s)
}

func isRadar(s occlusion.SensorID) bool {
	return strings.HasPrefix(string(s), "RADAR")
}

// LoadSensors reads up to nsweeps sweeps for each requested sensor listed
// in the sample's manifest and returns ego-frame clouds. Requested sensors
// missing from the manifest are absent from the result.
func (m *ManifestSource) LoadSensors(ctx context.Context, sampleID string, sensors []occlusion.SensorID, nsweeps int) (map[occlusion.SensorID]occlusion.PointCloud, error) {
	if nsweeps < 1 {
		nsweeps = 1
	}
	man, err := ReadManifest(m.FS, m.Root, sampleID)
	if err != nil {
		return nil, err
	}

	out := make(map[occlusion.SensorID]occlusion.PointCloud, len(sensors))
	for _, s := range sensors {
		entry, ok := man.Sensors[string(s)]
		if !ok {
			continue
		}
		layout := m.layout(s)
		cloud := occlusion.PointCloud{Channels: append([]string(nil), layout...)}
		sweeps := entry.Sweeps
		if len(sweeps) > nsweeps {
			sweeps = sweeps[:nsweeps]
		}
		for _, sw := range sweeps {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			frame, err := m.readSweep(sw.Path, entry.Fields)
			if err != nil {
				return nil, fmt.Errorf("sample %s sensor %s: %w", sampleID, s, err)
			}
			if m.RadarFilters && isRadar(s) {
				removed, missing := frame.FilterRadar(DefaultRadarFilter)
				if len(missing) > 0 {
					monitoring.Warnf("%s %s: radar filter fields %v missing from %s", sampleID, s, missing, sw.Path)
				}
				if removed > 0 {
					monitoring.Logf("%s %s: radar filters removed %d points", sampleID, s, removed)
				}
			}
			if removed := frame.RemoveClose(m.MinDistance); removed > 0 {
				monitoring.Logf("%s %s: removed %d points within %.2fm", sampleID, s, removed, m.MinDistance)
			}
			T, _ := sw.Pose()
			part := frame.ToCloud(s, layout, T, sw.TimeLag)
			cloud.Points = append(cloud.Points, part.Points...)
		}
		out[s] = cloud
	}
	return out, nil
}

func (m *ManifestSource) readSweep(path string, fields []string) (*Frame, error) {
	path, err := security.ResolveWithin(m.Root, path)
	if err != nil {
		return nil, err
	}
	data, err := m.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pcd":
		return ReadPCD(bytes.NewReader(data))
	case ".bin":
		return ReadBin(data, fields)
	default:
		return nil, fmt.Errorf("unsupported sweep format %q for %s", ext, path)
	}
}
