// Package npm provides a client for the npm registry search and packument
// endpoints.
package npm
