package ccp

// registry is the process-wide, append-only list of option handlers.
// Writes only ever happen during package init (each option module
// registers itself from its own init() function, the way database/sql
// drivers register themselves), strictly before any Instance is
// constructed; it is treated as an immutable, unlocked table at session
// time (spec.md §9, "Global option registry").
var registry []Handler

// Register adds a handler to the process-wide option registry. It must
// only be called during program initialization (typically from an
// option package's own init() function), before any CCP Instance is
// created.
func Register(h Handler) {
	registry = append(registry, h)
}

// registeredHandlers returns the current registry contents. Exposed as a
// function rather than a variable so callers can't mutate package state
// through the slice header.
func registeredHandlers() []Handler {
	out := make([]Handler, len(registry))
	copy(out, registry)
	return out
}
