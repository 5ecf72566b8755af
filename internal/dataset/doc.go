// Package dataset loads per-sensor sweeps for a sample from disk and writes
// occluded clouds back out.
//
// A sample is described by a JSON manifest, <root>/<sample>.json, listing
// for each sensor the sweep files to read, the 4x4 row-major transform that
// takes the sensor frame into the reference ego frame, and each sweep's time
// lag. Sweeps are PCD files or raw little-endian float32 .bin records whose
// layout the manifest names. Binary and binary_compressed PCDs may use any
// F, I or U field type; ascii PCDs are limited to 4-byte F and U fields.
package dataset
