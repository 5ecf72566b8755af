package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// binaryPCD builds a binary PCD file with float32 fields from rows.
func binaryPCD(fields []string, rows [][]float32) []byte {
	var b bytes.Buffer
	n := len(fields)
	rep := func(s string) string { return strings.TrimSpace(strings.Repeat(s+" ", n)) }
	fmt.Fprintf(&b, "VERSION 0.7\n")
	fmt.Fprintf(&b, "FIELDS %s\n", strings.Join(fields, " "))
	fmt.Fprintf(&b, "SIZE %s\n", rep("4"))
	fmt.Fprintf(&b, "TYPE %s\n", rep("F"))
	fmt.Fprintf(&b, "COUNT %s\n", rep("1"))
	fmt.Fprintf(&b, "WIDTH %d\n", len(rows))
	fmt.Fprintf(&b, "HEIGHT 1\n")
	fmt.Fprintf(&b, "VIEWPOINT 0 0 0 1 0 0 0\n")
	fmt.Fprintf(&b, "POINTS %d\n", len(rows))
	fmt.Fprintf(&b, "DATA binary\n")
	for _, r := range rows {
		for _, v := range r {
			_ = binary.Write(&b, binary.LittleEndian, math.Float32bits(v))
		}
	}
	return b.Bytes()
}

// binRecords packs rows as little-endian float32.
func binRecords(rows [][]float32) []byte {
	var b bytes.Buffer
	for _, r := range rows {
		_ = binary.Write(&b, binary.LittleEndian, r)
	}
	return b.Bytes()
}
