// Package telemetry provides the read-only monitoring layer over the cache.
//
// A Reporter samples cache statistics and host-process memory on a fixed
// interval while a monitoring view is active. Start begins sampling and
// Stop releases the ticker deterministically, mapping the "monitor open,
// polling starts; monitor closed, polling stops" lifecycle without ambient
// global timers.
//
// Host memory is read through the MemoryProbe capability interface. Not
// every runtime exposes process memory, so the Reporter degrades gracefully
// and reports the heap as unavailable when the probe fails or is absent.
//
// The Reporter never mutates cache state on its own; the only write path it
// exposes is the explicit ClearCache passthrough for the monitoring widget.
package telemetry
