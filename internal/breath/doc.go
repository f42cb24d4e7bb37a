// Package breath simulates one mechanical breath delivered to a
// single-compartment lung model.
//
// The lung is an RC circuit: compliance C charges through the airway
// resistance R while a leak path of 100·R bleeds pressure back toward PEEP.
// Each breath has three phases solved in closed form:
//
//   - Inspiration: constant flow, lung pressure charges toward Flow·Rleak + PEEP
//   - Hold: zero flow, lung pressure decays through the leak only
//   - Expiration: passive exhale through Rleak ∥ R, flow is negative
//
// # Pipeline
//
// A simulation is four sequential stages, all pure functions:
//
//	p, err := breath.Resolve(breath.Overrides{BreathsPerMinute: breath.Ptr(15.0)})
//	tm, err := breath.ResolveTiming(p)    // integer sample counts per phase
//	tr := breath.NewTrace(tm)             // empty table over [0, T)
//	tr, end, err := breath.Inspire(tr, p) // each phase returns a new trace
//	tr, end, err = breath.Hold(tr, p, end)
//	tr, _, err = breath.Expire(tr, p, end)
//	mt, err := breath.Replicate(tr, 4)
//
// Simulate and Run wrap the pipeline.
//
// # Grid
//
// Time is held as an integer sample index k with t = k·Step. Phase boundaries
// are sample indices, so the hand-off between phases is an exact index match.
// The breath grid is half-open: rows 0..Period-1.
//
// # Errors
//
// Every failure is an *Error with a Code: INVALID_CONFIGURATION,
// GRID_ALIGNMENT or REPLICATION_ARGUMENT.
package breath
