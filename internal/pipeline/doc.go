// SPDX-License-Identifier: MPL-2.0

// Package pipeline orchestrates recompilation: collect sources, resolve
// references, compile, load, build the command registry and publish the
// result as a new immutable Generation.
//
// At most one cycle runs at a time. Triggers that arrive while a cycle is
// running set a rerun flag that starts one more cycle as soon as the
// current one finishes, so bursts collapse instead of queueing. The current
// generation is swapped with a single atomic pointer store; readers never
// take a lock.
package pipeline
