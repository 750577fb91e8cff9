// SPDX-License-Identifier: MPL-2.0

// Package config handles livecmd configuration using Viper with CUE as the file format.
//
// A configuration file is looked up in this order: an explicit path (the --config
// flag), livecmd.cue in the workspace directory, then config.cue in the user
// configuration directory ($XDG_CONFIG_HOME/livecmd on Linux,
// ~/Library/Application Support/livecmd on macOS, %APPDATA%\livecmd on Windows).
// When none exists the built-in defaults apply. Every key can be overridden by a
// LIVECMD_ environment variable (watch.debounce becomes LIVECMD_WATCH_DEBOUNCE).
//
// Files are validated against the embedded #Config schema (config_schema.cue)
// before they are merged into Viper.
package config
