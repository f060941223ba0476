package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/emit"
	"github.com/weldkit/weld/internal/fingerprint"
	"github.com/weldkit/weld/internal/inspect"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
)

// LoadStage reads the manifest bytes unless the caller provided them.
type LoadStage struct{}

func (s *LoadStage) Name() string { return "load" }

func (s *LoadStage) Process(ctx *Context) *Context {
	if ctx.Err != nil || ctx.Source != nil {
		return ctx
	}
	data, err := os.ReadFile(ctx.ManifestPath)
	if err != nil {
		ctx.Diagnostics.Add(diagnostics.NewError(diagnostics.ErrW001, nil, err))
		return ctx
	}
	ctx.Source = data
	ctx.Tracef("load: %d bytes from %s", len(data), ctx.ManifestPath)
	return ctx
}

// ParseStage decodes and validates the manifest.
type ParseStage struct{}

func (s *ParseStage) Name() string { return "parse" }

func (s *ParseStage) Process(ctx *Context) *Context {
	if ctx.Err != nil || ctx.Source == nil {
		return ctx
	}
	m, derr := manifest.Parse(ctx.Source, ctx.ManifestPath)
	if derr != nil {
		ctx.Diagnostics.Add(derr)
		return ctx
	}
	ctx.Manifest = m
	ctx.Diagnostics.AddAll(manifest.Validate(m))
	ctx.Tracef("parse: package %s, %d composites", m.Package, len(m.Composites))
	return ctx
}

// ScanStage binds the manifest against the target package.
type ScanStage struct{}

func (s *ScanStage) Name() string { return "scan" }

func (s *ScanStage) Process(ctx *Context) *Context {
	if ctx.Err != nil || ctx.Manifest == nil {
		return ctx
	}
	if ctx.ScanDisabled || !ctx.Manifest.ScanEnabled() {
		ctx.Tracef("scan: disabled")
		return ctx
	}
	scanner := &inspect.Scanner{Dir: ctx.Dir, Trace: ctx.Trace}
	result, errs := scanner.Scan(ctx.Manifest)
	ctx.Diagnostics.AddAll(errs)
	ctx.Scan = result
	return ctx
}

// PlanStage resolves the model and computes its fingerprint. It runs
// even when earlier stages reported problems so every resolvable op
// still gets its filters checked.
type PlanStage struct{}

func (s *PlanStage) Name() string { return "plan" }

func (s *PlanStage) Process(ctx *Context) *Context {
	if ctx.Err != nil || ctx.Manifest == nil {
		return ctx
	}
	mod, errs := model.Build(ctx.Manifest, ctx.Scan)
	ctx.Diagnostics.AddAll(errs)
	ctx.Model = mod

	fp, err := fingerprint.Compute(mod)
	if err != nil {
		ctx.Err = fmt.Errorf("computing fingerprint: %w", err)
		return ctx
	}
	mod.Fingerprint = fp
	ctx.Tracef("plan: fingerprint %s", fp)
	return ctx
}

// EmitStage renders the output file. It refuses to render while any
// diagnostic is pending; a broken manifest must never half-generate.
type EmitStage struct{}

func (s *EmitStage) Name() string { return "emit" }

func (s *EmitStage) Process(ctx *Context) *Context {
	if ctx.Err != nil || ctx.Model == nil || ctx.Diagnostics.HasErrors() {
		return ctx
	}
	files, err := emit.NewGenerator().Generate(ctx.Model)
	if err != nil {
		var derr *diagnostics.DiagnosticError
		if errors.As(err, &derr) {
			ctx.Diagnostics.Add(derr)
		} else {
			ctx.Err = err
		}
		return ctx
	}
	ctx.Files = files
	ctx.Tracef("emit: %d file(s)", len(files))
	return ctx
}
