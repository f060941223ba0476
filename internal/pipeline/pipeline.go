// Package pipeline wires the weld stages: load, parse, scan, plan,
// emit. Stages communicate through a shared context and no-op when
// their inputs are missing, so a single run collects diagnostics from
// every stage that can still do useful work.
package pipeline

// Processor is one pipeline stage.
type Processor interface {
	// Name identifies the stage in traces.
	Name() string

	Process(ctx *Context) *Context
}

// Pipeline is a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default returns the standard stage sequence. Callers that need only
// part of the output (check, inspect, export) still run the whole
// thing; writing files to disk is the caller's decision.
func Default() *Pipeline {
	return New(
		&LoadStage{},
		&ParseStage{},
		&ScanStage{},
		&PlanStage{},
		&EmitStage{},
	)
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on diagnostics so one run reports everything.
	}
	return ctx
}
