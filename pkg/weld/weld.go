// Package weld provides a high-level API for driving code generation
// from Go programs, wrapping the internal pipeline behind three calls:
// Generate writes output files, Check runs without writing, and Verify
// compares checked-in files against the current plan.
package weld

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/emit"
	"github.com/weldkit/weld/internal/fingerprint"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
	"github.com/weldkit/weld/internal/pipeline"
)

// Options configures a run. The zero value locates the manifest by
// walking up from the current directory.
type Options struct {
	// Dir is where the manifest search starts when ManifestPath is
	// empty. Defaults to ".".
	Dir string

	// ManifestPath names the manifest directly, skipping the search.
	ManifestPath string

	// Source holds in-memory manifest content. When set, the file at
	// ManifestPath is not read; the path only names the document in
	// diagnostics and anchors the output directory.
	Source []byte

	// NoScan skips binding element types against the target package.
	NoScan bool

	// Trace receives stage-by-stage progress when non-nil.
	Trace io.Writer
}

// Result reports one run. Diagnostics and generated files are both
// carried so callers can print every problem from a single pass.
type Result struct {
	ManifestPath string
	Dir          string
	Fingerprint  string
	Model        *model.Model
	Files        []emit.File
	Diagnostics  []*diagnostics.DiagnosticError

	// Written and Unchanged list output filenames by what Generate did
	// with them. Both stay empty for Check and Verify.
	Written   []string
	Unchanged []string
}

// Ok reports whether the run produced no diagnostics.
func (r *Result) Ok() bool {
	return len(r.Diagnostics) == 0
}

// VerifyResult splits the planned output files into up-to-date,
// missing, and stale.
type VerifyResult struct {
	Result *Result

	// Missing lists planned files absent from disk.
	Missing []string

	// Stale lists files on disk whose fingerprint stamp or content
	// differs from the current plan.
	Stale []string
}

// UpToDate reports whether every planned file is present and current.
func (v *VerifyResult) UpToDate() bool {
	return len(v.Missing) == 0 && len(v.Stale) == 0
}

// Generate runs the full pipeline and writes the generated files next
// to the manifest. Files whose content is already current are left
// untouched. Nothing is written when diagnostics are reported.
func Generate(opts Options) (*Result, error) {
	return run(opts, true)
}

// Check runs the full pipeline, including rendering, without writing
// anything.
func Check(opts Options) (*Result, error) {
	return run(opts, false)
}

// Verify runs Check and compares each planned file against disk.
func Verify(opts Options) (*VerifyResult, error) {
	res, err := run(opts, false)
	v := &VerifyResult{Result: res}
	if err != nil || !res.Ok() {
		return v, err
	}

	for _, f := range res.Files {
		target := filepath.Join(res.Dir, f.Filename)
		data, rerr := os.ReadFile(target)
		if rerr != nil {
			v.Missing = append(v.Missing, f.Filename)
			continue
		}
		stamp, ok := fingerprint.ExtractStamp(data)
		if !ok || stamp != res.Fingerprint || !bytes.Equal(data, []byte(f.Content)) {
			v.Stale = append(v.Stale, f.Filename)
		}
	}
	return v, nil
}

func run(opts Options, write bool) (*Result, error) {
	path, err := resolveManifest(opts)
	if err != nil {
		return &Result{}, err
	}

	ctx := pipeline.NewContext(path)
	ctx.Source = opts.Source
	ctx.ScanDisabled = opts.NoScan
	ctx.Trace = opts.Trace
	ctx = pipeline.Default().Run(ctx)

	res := &Result{
		ManifestPath: path,
		Dir:          ctx.Dir,
		Model:        ctx.Model,
		Files:        ctx.Files,
		Diagnostics:  ctx.Diagnostics.All(),
	}
	if ctx.Model != nil {
		res.Fingerprint = ctx.Model.Fingerprint
	}
	if ctx.Err != nil {
		return res, ctx.Err
	}
	if !write || !res.Ok() {
		return res, nil
	}

	for _, f := range ctx.Files {
		target := filepath.Join(ctx.Dir, f.Filename)
		if prev, rerr := os.ReadFile(target); rerr == nil && bytes.Equal(prev, []byte(f.Content)) {
			res.Unchanged = append(res.Unchanged, f.Filename)
			continue
		}
		if werr := os.WriteFile(target, []byte(f.Content), 0o644); werr != nil {
			return res, fmt.Errorf("writing %s: %w", target, werr)
		}
		res.Written = append(res.Written, f.Filename)
	}
	return res, nil
}

func resolveManifest(opts Options) (string, error) {
	if opts.ManifestPath != "" {
		return opts.ManifestPath, nil
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	path, err := manifest.Find(dir)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no %s found in %s or any parent directory", config.ManifestName, dir)
	}
	return path, nil
}
