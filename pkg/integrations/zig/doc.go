// Package zig provides registry lookups for zig packages, built on the
// zig.pm community index and the GitHub API.
//
// Unlike npm and crates.io, the upstream index exposes no search or version
// endpoints. Search is computed by scanning the full index, fetched once per
// process (see [IndexCache]); versions come from the package repository's
// GitHub tags.
package zig
