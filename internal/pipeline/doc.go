// Package pipeline chains the archive, key derivation, cipher and container stages
// into the two user-facing operations: sealing a folder into a container file and
// restoring a folder from one.
//
// Each call is synchronous and holds the whole payload in memory. Errors keep their
// kind across stages, so callers can test them with errors.Is against the sentinels
// in the errors package.
package pipeline
