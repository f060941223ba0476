package pipeline

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/emit"
	"github.com/weldkit/weld/internal/inspect"
	"github.com/weldkit/weld/internal/manifest"
	"github.com/weldkit/weld/internal/model"
)

// Context carries the state of one run through the stages.
type Context struct {
	// ManifestPath locates weld.yaml. Dir is its directory, used as
	// the scan working directory and the output base.
	ManifestPath string
	Dir          string

	// Source holds the raw manifest bytes. When set before the run,
	// the load stage leaves it alone (in-memory manifests).
	Source []byte

	// ScanDisabled skips package binding regardless of the manifest.
	ScanDisabled bool

	// Trace receives stage traces when non-nil.
	Trace io.Writer

	// Stage products, each nil until its stage ran.
	Manifest *manifest.Manifest
	Scan     *inspect.Result
	Model    *model.Model
	Files    []emit.File

	// Diagnostics accumulates user-input problems across stages.
	Diagnostics *diagnostics.Set

	// Err is a tool-internal fault. Once set, remaining stages no-op.
	Err error
}

// NewContext prepares a context for the given manifest path.
func NewContext(manifestPath string) *Context {
	return &Context{
		ManifestPath: manifestPath,
		Dir:          filepath.Dir(manifestPath),
		Diagnostics:  diagnostics.NewSet(),
	}
}

// Tracef writes one trace line when tracing is enabled.
func (ctx *Context) Tracef(format string, args ...interface{}) {
	if ctx.Trace != nil {
		fmt.Fprintf(ctx.Trace, format+"\n", args...)
	}
}

// Failed reports whether the run produced diagnostics or a fault.
func (ctx *Context) Failed() bool {
	return ctx.Err != nil || ctx.Diagnostics.HasErrors()
}
