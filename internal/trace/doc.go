// Package trace records what a build is doing as a stream of events.
//
// Events belong to one of three scopes: the whole build, one compilation
// unit, or one function inside a unit. The tracer level decides the finest
// scope that is recorded:
//
//	off < build < unit < func
//
// A tracer either writes events as they happen (text or NDJSON), keeps the
// last N of them in a ring for a dump after a failure, or both.
//
//	t, _ := trace.Open(trace.Config{Level: trace.LevelUnit, Path: "-"})
//	ctx = trace.WithTracer(ctx, t)
//
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit:core", 0)
//	defer sp.End("")
package trace
