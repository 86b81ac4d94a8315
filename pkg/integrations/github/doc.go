// Package github provides GitHub repository identification and a client for
// the tag and branch endpoints of the GitHub REST API.
//
// The slug utilities ([ParseRepoSlug], [ToRepoSlug]) are pure string/URL
// parsing with no network access; they back the zig registry's treatment of
// GitHub repositories as packages.
package github
