package version

import "runtime/debug"

var version = "dev"

// Version returns the module version from build info, falling back to the
// value set via -ldflags or Set.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set assigns the version when ldflags are not provided (e.g. local dev).
func Set(v string) {
	if v != "" {
		version = v
	}
}

// String returns the version with the short VCS revision when known,
// e.g. "dev (a1b2c3d)".
func String() string {
	v := Version()
	if rev := revision(); rev != "" {
		return v + " (" + rev + ")"
	}
	return v
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
