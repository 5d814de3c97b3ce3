package embed

import (
	"fmt"
	"runtime"
)

// CodeModelMemoryCapBytes is the resident-memory ceiling checked before
// loading the code-domain model (spec §4.7): "before loading the code
// model the service checks resident memory usage against a 2.5 GB cap
// and refuses to load on exceedance".
const CodeModelMemoryCapBytes = 2500 * 1024 * 1024

// residentMemoryBytes approximates process resident memory using the Go
// runtime's own heap + stack accounting (Sys), the same runtime.MemStats
// source the teacher's preflight memory checker used — there is no
// portable cross-platform RSS syscall in the standard library, and
// nothing in the retrieved corpus wires a gopsutil-style dependency for
// this, so the approximation stays stdlib-only.
func residentMemoryBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys
}

// checkMemoryBudget reports whether loading another model would be safe
// given the configured cap; a capBytes of 0 disables the guard.
func checkMemoryBudget(capBytes uint64) error {
	if capBytes == 0 {
		return nil
	}
	used := residentMemoryBytes()
	if used >= capBytes {
		return fmt.Errorf("resident memory %d bytes exceeds the %d byte cap for loading another model", used, capBytes)
	}
	return nil
}
