package worker

import "slices"

// Names is one cache generation: the three caches tagged with a version.
type Names struct {
	Static  string
	Dynamic string
	Legacy  string
}

// NamesFor returns the generation for prefix and version.
func NamesFor(prefix, version string) Names {
	return Names{
		Static:  prefix + "-static-" + version,
		Dynamic: prefix + "-dynamic-" + version,
		Legacy:  prefix + "-" + version,
	}
}

// All returns the names in lookup order.
func (n Names) All() []string {
	return []string{n.Static, n.Dynamic, n.Legacy}
}

// Contains reports whether name belongs to this generation.
func (n Names) Contains(name string) bool {
	return slices.Contains(n.All(), name)
}
