// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for netbridge.
//
// Configuration comes from at most one file, named by the --config
// flag (via [LoadFile]) or the NETBRIDGE_CONFIG environment variable
// (via [Load]). With neither, [Load] returns [Default]. There is no
// file discovery and environment variables do not override values
// read from the file.
//
// Variable expansion is performed on the socket path after loading:
// ${HOME}, ${XDG_RUNTIME_DIR} and ${VAR:-default} patterns are
// expanded.
//
// Durations are written as Go duration strings ("1s", "500ms") and
// checked by [Config.Validate].
//
// This package depends on no other netbridge packages.
package config
