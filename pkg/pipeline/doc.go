// Package pipeline provides a sequential callback pipeline.
//
// A pipeline is an ordered chain of steps applied to an evolving value, the carry. Every step receives the
// carry, the input the run was started with, a transport shared by all the steps of the run and the extra
// arguments given when it was registered. Its return value becomes the next carry, optionally coerced by a
// caster.
//
// A pipeline is a mutable builder until its first run. From then on it is locked and no step can be added.
// While a run is in progress the pipeline is working: running it again, adding a step or reading its info
// from one of its own steps fails with ErrState.
//
// A pipeline is itself a Step, so pipelines nest. The nested pipeline starts from the outer carry and
// shares the outer transport, which lets steps at every level exchange data.
//
//	inner := pipeline.MustNew().MustPipe(pipeline.StepFunc(tag))
//	outer := pipeline.MustNew(pipeline.WithCaster(pipeline.CastToString)).
//		MustPipe(inner).
//		MustPipe(pipeline.StepFunc(report))
//	out, err := outer.Apply("input")
//
// Every run is recorded; Info returns the transport snapshot of each run, most recent first, and empties the
// history.
package pipeline
