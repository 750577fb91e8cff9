// SPDX-License-Identifier: MPL-2.0

// Package engine is the composition root of livecmd. It builds the runtime
// registry, the compiler backend, the module loader, the recompile pipeline,
// the host loop, the execution bridge and, optionally, the directory watcher
// from a resolved configuration.
//
// Nothing is global: an embedding host creates one Engine per workspace,
// runs it on the goroutine that should own command execution, and submits
// commands from anywhere.
package engine
