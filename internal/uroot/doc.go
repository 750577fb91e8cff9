// SPDX-License-Identifier: MPL-2.0

// Package uroot provides in-process implementations of common file and text
// utilities for the virtual runtime.
//
// Scripts run by the embedded interpreter would otherwise depend on whatever
// coreutils the host has on PATH. Commands registered here are served from
// the livecmd binary itself: file commands wrap u-root's pkg/core, text
// filters are implemented locally. Names that are not registered fall
// through to the host.
package uroot
