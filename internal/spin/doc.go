// Package spin provides the core state types shared across the simulator.
//
// The package defines the fundamental vocabulary for classical and SU(N)
// coherent-state magnetic models:
//
//   - [Vec]: fixed-magnitude spin state vector
//   - [Matrix]: dense coupling tensor over spin channels
//   - [Configuration]: per-site state array over a lattice
//   - [Metric]: scalar observable accumulated over sampled configurations
//
// # Thread Safety
//
// Configurations are NOT thread-safe; every concurrently evolving replica
// owns its own Configuration. Matrices are immutable after construction by
// convention and may be shared.
package spin
