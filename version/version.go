package version

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "<version>"
