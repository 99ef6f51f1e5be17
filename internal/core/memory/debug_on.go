//go:build scenedebug

package memory

import "fmt"

// DebugChecks reports whether accessor bounds checks are compiled in.
const DebugChecks = true

func checkIndex(a *Accessor, i int) {
	if i < 0 || i >= a.count {
		panic(fmt.Sprintf("memory: accessor index %d out of range [0,%d)", i, a.count))
	}
}
