// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/doeshing/puremath/internal/version.Version=v3.1.0"
package version

var (
	// Version is the release tag.
	Version = "3.0.0-dev"
	// Commit is the git revision the binary was built from.
	Commit = ""
	// BuildDate is the RFC 3339 build timestamp.
	BuildDate = ""
)
