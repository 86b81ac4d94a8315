// Package crates provides a client for the crates.io search and version
// endpoints.
package crates
