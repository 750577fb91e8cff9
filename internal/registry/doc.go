// SPDX-License-Identifier: MPL-2.0

// Package registry turns the symbols declared by a loaded module into an
// immutable, name-sorted set of executable commands.
//
// Discovery is capability based: a symbol qualifies as a command candidate
// when it implements Factory. Each candidate is instantiated independently;
// a failing or panicking constructor removes only that candidate. A Registry
// is never mutated after Build returns; publishing new commands always means
// building a new Registry.
package registry
