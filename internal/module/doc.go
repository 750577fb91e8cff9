// SPDX-License-Identifier: MPL-2.0

// Package module defines the compiled module artifact and loads it back
// into a list of declared symbols.
//
// An artifact is a single JSON document holding every command declaration
// and every library source of one compilation. Its digest covers the whole
// payload so a truncated or hand-edited artifact is detected on load.
package module
