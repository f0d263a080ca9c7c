// Package version reports the restproxy build, used for the default
// User-Agent of outgoing requests.
//
// Version and commit can be set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/restproxy/version.Version=1.0.0"
//
// When restproxy is a dependency, the module version from the embedding
// binary's build info is used instead of "dev".
package version
