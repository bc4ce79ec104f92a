// Package scanner walks filesystem paths, directories and nested archives,
// and reads the version of every Java class file it finds.
//
// An Engine runs a single scan on the calling goroutine and publishes every
// outcome as a model.Result on an unbounded Queue. Any number of other
// goroutines may drain that queue and read the engine's counters while the
// scan is running; neither side ever blocks the other.
//
// Bad input never stops a scan: a missing path, an unreadable directory, a
// corrupt archive or a truncated class file each become one model.Failure
// and the scan moves on to the next item. Only misuse of the engine itself,
// such as calling Scan twice, is reported as an error.
//
// Design decision: Nested archives are scanned by direct recursion. Real
// archives nest a handful of levels deep, so the goroutine stack is ample;
// an adversarial archive nested thousands of levels deep would grow the
// stack accordingly, bounded only by the runtime's maximum stack size.
package scanner
