package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/seqsense/pcgol/pc"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// Extra PCD fields written after x y z and the cloud's channels.
const (
	FieldTimeLag = "time_lag"
	FieldSensor  = "sensor"
)

// ErrUnsupportedPCD is returned for PCD layouts the decoder cannot read
// faithfully.
var ErrUnsupportedPCD = errors.New("unsupported pcd layout")

// ReadPCD decodes a PCD stream into a Frame. Binary and binary_compressed
// data may hold any F, I or U field; ascii data is limited to 4-byte F and U
// fields. Fields with COUNT > 1 are expanded to name_0, name_1, ...
func ReadPCD(r io.Reader) (*Frame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pcd: %w", err)
	}
	p, err := pc.Unmarshal(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode pcd: %w", err)
	}
	if pcdDataFormat(raw) == "ascii" {
		for i, name := range p.Fields {
			if size, typ := int(p.Size[i]), string(p.Type[i]); size != 4 || (typ != "F" && typ != "U") {
				return nil, fmt.Errorf("decode pcd: ascii field %s is %s%d: %w", name, typ, size, ErrUnsupportedPCD)
			}
		}
	}

	type column struct {
		offset, size int
		typ          string
	}
	var (
		fields []string
		cols   []column
		stride int
	)
	for i, name := range p.Fields {
		size, count := int(p.Size[i]), int(p.Count[i])
		for c := 0; c < count; c++ {
			n := name
			if count > 1 {
				n = fmt.Sprintf("%s_%d", name, c)
			}
			fields = append(fields, n)
			cols = append(cols, column{offset: stride, size: size, typ: string(p.Type[i])})
			stride += size
		}
	}

	n := int(p.Points)
	if len(p.Data) < n*stride {
		return nil, fmt.Errorf("decode pcd: %d bytes of data for %d points of %d bytes", len(p.Data), n, stride)
	}

	f := &Frame{Fields: fields, Rows: make([][]float64, n)}
	if !f.hasXYZ() {
		return nil, fmt.Errorf("decode pcd: missing x, y or z field in %v", fields)
	}
	for i := 0; i < n; i++ {
		rec := p.Data[i*stride : (i+1)*stride]
		row := make([]float64, len(cols))
		for j, c := range cols {
			v, err := decodeScalar(rec[c.offset:c.offset+c.size], c.typ)
			if err != nil {
				return nil, fmt.Errorf("decode pcd field %s: %w", fields[j], err)
			}
			row[j] = v
		}
		f.Rows[i] = row
	}
	return f, nil
}

// pcdDataFormat returns the lower-cased value of the header's DATA line,
// or "" when there is none.
func pcdDataFormat(raw []byte) string {
	for len(raw) > 0 {
		line := raw
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			line, raw = raw[:i], raw[i+1:]
		} else {
			raw = nil
		}
		fields := strings.Fields(string(line))
		if len(fields) >= 2 && fields[0] == "DATA" {
			return strings.ToLower(fields[1])
		}
	}
	return ""
}

// decodeScalar reads one little-endian PCD value of type F, I or U.
func decodeScalar(b []byte, typ string) (float64, error) {
	le := binary.LittleEndian
	switch typ {
	case "F":
		switch len(b) {
		case 4:
			return float64(math.Float32frombits(le.Uint32(b))), nil
		case 8:
			return math.Float64frombits(le.Uint64(b)), nil
		}
	case "I":
		switch len(b) {
		case 1:
			return float64(int8(b[0])), nil
		case 2:
			return float64(int16(le.Uint16(b))), nil
		case 4:
			return float64(int32(le.Uint32(b))), nil
		case 8:
			return float64(int64(le.Uint64(b))), nil
		}
	case "U":
		switch len(b) {
		case 1:
			return float64(b[0]), nil
		case 2:
			return float64(le.Uint16(b)), nil
		case 4:
			return float64(le.Uint32(b)), nil
		case 8:
			return float64(le.Uint64(b)), nil
		}
	}
	return 0, fmt.Errorf("unsupported type %s size %d", typ, len(b))
}

// PCDFields returns the field layout WritePCD uses for cloud.
func PCDFields(cloud occlusion.PointCloud) []string {
	fields := []string{"x", "y", "z"}
	fields = append(fields, cloud.Channels...)
	return append(fields, FieldTimeLag, FieldSensor)
}

// WritePCD encodes cloud as a binary PCD with float32 fields
// x y z <channels> time_lag sensor, where sensor is the SensorIndex.
func WritePCD(w io.Writer, cloud occlusion.PointCloud) error {
	fields := PCDFields(cloud)
	nf := len(fields)
	p := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version: 0.7,
			Fields:  fields,
			Size:    make([]int, nf),
			Type:    make([]string, nf),
			Count:   make([]int, nf),
			Width:   cloud.Len(),
			Height:  1,
		},
		Points: cloud.Len(),
		Data:   make([]byte, 0, cloud.Len()*nf*4),
	}
	for i := range fields {
		p.Size[i], p.Type[i], p.Count[i] = 4, "F", 1
	}

	var buf [4]byte
	put := func(v float64) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		p.Data = append(p.Data, buf[:]...)
	}
	for _, pt := range cloud.Points {
		put(pt.X)
		put(pt.Y)
		put(pt.Z)
		for i := range cloud.Channels {
			if i < len(pt.Channels) {
				put(pt.Channels[i])
			} else {
				put(0)
			}
		}
		put(pt.TimeLag)
		put(float64(SensorIndex(pt.Sensor)))
	}

	if err := pc.Marshal(p, w); err != nil {
		return fmt.Errorf("encode pcd: %w", err)
	}
	return nil
}

// knownSensors fixes the numeric sensor codes written to output files.
var knownSensors = append(append([]occlusion.SensorID(nil), occlusion.RadarSensors...), occlusion.LidarSensors...)

// SensorIndex returns the numeric code of a known sensor, or -1.
func SensorIndex(s occlusion.SensorID) int {
	for i, k := range knownSensors {
		if k == s {
			return i
		}
	}
	return -1
}

// SensorFromIndex is the inverse of SensorIndex.
func SensorFromIndex(i int) (occlusion.SensorID, bool) {
	if i < 0 || i >= len(knownSensors) {
		return "", false
	}
	return knownSensors[i], true
}
