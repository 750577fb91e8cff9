// SPDX-License-Identifier: MPL-2.0

// Package runtime executes command scripts.
//
// Two runtimes are provided: "virtual" runs scripts inside the embedded
// mvdan/sh interpreter and needs no host shell, while "native" hands the
// script to the host's POSIX shell. Both receive the library preamble ahead
// of the command script so library functions are callable by name.
package runtime
