// Package version holds the build version, overridable at link time.
package version

// Version is the strata release version
var Version = "0.1.0-dev"
