// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing problems and the
// ActionableError type that links an error to its catalog entry. Entries are
// Markdown and are rendered with glamour by the CLI.
package issue
