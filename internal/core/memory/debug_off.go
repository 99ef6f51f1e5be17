//go:build !scenedebug

package memory

// DebugChecks reports whether accessor bounds checks are compiled in.
const DebugChecks = false

func checkIndex(*Accessor, int) {}
