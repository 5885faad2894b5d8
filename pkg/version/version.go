package version

import (
	"fmt"
	"runtime"
)

// Stamped at build time via -ldflags; Version stays "dev" for plain
// go-build binaries.
var (
	Version = "dev"
	Commit  = ""
)

// Short returns just the version number.
func Short() string {
	return Version
}

// Long returns the full one-line version: number, commit when stamped,
// and the toolchain/platform the binary was built with.
func Long() string {
	s := "pagepress " + Version
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	return fmt.Sprintf("%s, %s %s/%s", s, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
