package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// NuScenesLidarFields is the column layout of nuScenes LIDAR_TOP .bin sweeps.
var NuScenesLidarFields = []string{"x", "y", "z", "intensity", "ring"}

// ReadBin decodes packed little-endian float32 records of len(fields)
// columns each.
func ReadBin(data []byte, fields []string) (*Frame, error) {
	if len(fields) == 0 {
		fields = NuScenesLidarFields
	}
	f := &Frame{Fields: append([]string(nil), fields...)}
	if !f.hasXYZ() {
		return nil, fmt.Errorf("decode bin: fields %v lack x, y or z", fields)
	}
	stride := 4 * len(fields)
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("decode bin: %d bytes is not a multiple of %d-byte records", len(data), stride)
	}
	n := len(data) / stride
	f.Rows = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(fields))
		for j := range row {
			off := i*stride + j*4
			row[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4])))
		}
		f.Rows[i] = row
	}
	return f, nil
}

// WriteBin encodes cloud as float32 records of x y z <channels>. A LiDAR
// cloud with the default channels produces a nuScenes-compatible sweep.
func WriteBin(w io.Writer, cloud occlusion.PointCloud) error {
	bw := bufio.NewWriter(w)
	nc := len(cloud.Channels)
	rec := make([]float32, 3+nc)
	for _, p := range cloud.Points {
		rec[0], rec[1], rec[2] = float32(p.X), float32(p.Y), float32(p.Z)
		for i := 0; i < nc; i++ {
			rec[3+i] = 0
			if i < len(p.Channels) {
				rec[3+i] = float32(p.Channels[i])
			}
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("encode bin: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encode bin: %w", err)
	}
	return nil
}
