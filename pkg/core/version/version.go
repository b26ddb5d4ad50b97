// ============================================================================
// wtf - Acronym Lookup Service
// ============================================================================
//
// Package:     version
// Description: Central version information, overridable via -ldflags
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Service is the name reported in health reports and the User-Agent header
const Service = "wtf"

// Build information, set with -ldflags "-X github.com/msto63/wtf/pkg/core/version.Version=..."
var (
	Version   = "1.0.0"
	GitCommit = "development"
	BuildDate = "unknown"
)

// UserAgent returns the User-Agent used for outbound requests
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+%s)", Service, Version, runtime.Version())
}

// String returns a multi-line human readable version summary
func String() string {
	return fmt.Sprintf("%s v%s\n  Git Commit: %s\n  Build Date: %s\n  Go Version: %s\n  OS/Arch:    %s/%s\n",
		Service, Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
