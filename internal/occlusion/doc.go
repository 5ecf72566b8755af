// Package occlusion simulates radar and LiDAR sensor degradation on
// multi-sweep point clouds.
//
// Responsibilities: whole-sensor loss, random point dropout, spatial and
// angular region removal, Gaussian coordinate noise and radar RCS
// attenuation, applied in a fixed order so a seeded random source always
// reproduces the same degraded cloud.
// Key types: PointRecord, PointCloud, Config, Pipeline.
//
// Dependency rule: this package performs no I/O. Raw sweeps arrive through
// the Source interface; file decoding lives in internal/dataset.
package occlusion
