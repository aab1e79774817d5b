package version

import "runtime/debug"

// Version is the release tag. It is a var so builds can stamp it:
//
//	go build -ldflags "-X github.com/vanderheijden86/treekit/pkg/version.Version=v0.2.0"
var Version = "v0.1.0-dev"

// String returns Version, falling back to the module version recorded by
// `go install` when nothing was stamped.
func String() string {
	if Version != "v0.1.0-dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
