package version

// Version is set at build time with -ldflags "-X github.com/liamg/portprobe/version.Version=v1.0.0".
var Version string
