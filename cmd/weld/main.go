package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/diagnostics"
	"github.com/weldkit/weld/internal/exporter"
	"github.com/weldkit/weld/internal/ledger"
	"github.com/weldkit/weld/internal/model"
	"github.com/weldkit/weld/pkg/weld"
)

const usageText = `Usage: weld <command> [flags]

Commands:
  generate   render composite code from weld.yaml and write it next to the manifest
  check      run the full pipeline without writing anything (CI gate)
  verify     compare checked-in generated files against the current plan
  inspect    print the resolved plan as a table or JSON
  export     write the plan as a protobuf message, JSON, or descriptor set
  history    list recent generation runs from the ledger
  init       write a starter manifest
  version    print the tool version

Run "weld <command> -h" for the flags of a command.
`

const starterManifest = `# Composite layout for weld. Run "weld generate" after editing.
package: mypkg

domain:
  name: Kind
  identities: [alpha, beta]

composites:
  - name: Pair
    elements:
      - identity: alpha
        type: Alpha
      - identity: beta
        type: Beta
    ops:
      - name: reset_all
        doc: restores every element to its zero state.
`

// runFlags are shared by every command that resolves a manifest.
type runFlags struct {
	manifest string
	dir      string
	noScan   bool
}

func addRunFlags(fs *flag.FlagSet, withScan bool) *runFlags {
	rf := &runFlags{}
	fs.StringVar(&rf.manifest, "f", "", "manifest path (default: search upward from -dir)")
	fs.StringVar(&rf.dir, "dir", ".", "directory the manifest search starts from")
	if withScan {
		fs.BoolVar(&rf.noScan, "no-scan", false, "skip binding element types against the target package")
	}
	return rf
}

func (rf *runFlags) options(settings *config.Settings) weld.Options {
	opts := weld.Options{
		ManifestPath: rf.manifest,
		Dir:          rf.dir,
		NoScan:       rf.noScan,
	}
	if settings.Trace {
		opts.Trace = os.Stderr
	}
	return opts
}

// parseFlags wraps FlagSet.Parse so -h exits 0 and bad flags exit 2.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func printDiagnostics(settings *config.Settings, res *weld.Result) int {
	p := diagnostics.NewPrinter(os.Stderr, settings.NoColor)
	return p.Print(res.ManifestPath, res.Diagnostics)
}

// recordRun appends the outcome to the ledger. Ledger trouble is
// reported as a warning and never changes the exit code.
func recordRun(settings *config.Settings, res *weld.Result, runErr error) {
	if settings.NoLedger || res == nil || res.Dir == "" {
		return
	}
	path := settings.LedgerPath
	if path == "" {
		path = ledger.DefaultPath(res.Dir)
	}
	store, err := ledger.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ledger: %v\n", err)
		return
	}
	defer store.Close()

	outcome := ledger.OutcomeOK
	if runErr != nil || len(res.Diagnostics) > 0 {
		outcome = ledger.OutcomeError
	}
	run := ledger.Run{
		ManifestPath: res.ManifestPath,
		Fingerprint:  res.Fingerprint,
		Outcome:      outcome,
		Diagnostics:  len(res.Diagnostics),
		Files:        len(res.Files),
	}
	if _, err := store.Record(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ledger: %v\n", err)
	}
}

func handleGenerate(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	rf := addRunFlags(fs, true)
	dryRun := fs.Bool("dry-run", false, "render without writing files")
	noLedger := fs.Bool("no-ledger", false, "skip recording the run in the ledger")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	opts := rf.options(settings)
	var res *weld.Result
	var err error
	if *dryRun {
		res, err = weld.Check(opts)
	} else {
		res, err = weld.Generate(opts)
	}
	if !*noLedger {
		recordRun(settings, res, err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if printDiagnostics(settings, res) > 0 {
		return 1
	}

	if *dryRun {
		for _, f := range res.Files {
			fmt.Printf("would write %s\n", filepath.Join(res.Dir, f.Filename))
		}
		return 0
	}
	for _, name := range res.Written {
		fmt.Printf("wrote %s\n", filepath.Join(res.Dir, name))
	}
	for _, name := range res.Unchanged {
		fmt.Printf("unchanged %s\n", filepath.Join(res.Dir, name))
	}
	return 0
}

func handleCheck(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	rf := addRunFlags(fs, true)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := weld.Check(rf.options(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if printDiagnostics(settings, res) > 0 {
		return 1
	}
	fmt.Printf("ok: %s renders %d file(s)\n", res.ManifestPath, len(res.Files))
	return 0
}

func handleVerify(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	rf := addRunFlags(fs, false)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	v, err := weld.Verify(rf.options(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if printDiagnostics(settings, v.Result) > 0 {
		return 1
	}
	for _, name := range v.Missing {
		fmt.Printf("missing %s\n", filepath.Join(v.Result.Dir, name))
	}
	for _, name := range v.Stale {
		fmt.Printf("stale %s (run \"weld generate\")\n", filepath.Join(v.Result.Dir, name))
	}
	if !v.UpToDate() {
		return 1
	}
	fmt.Printf("ok: %d file(s) up to date\n", len(v.Result.Files))
	return 0
}

func handleInspect(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	rf := addRunFlags(fs, true)
	format := fs.String("format", "table", "output format: table or json")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := weld.Check(rf.options(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if printDiagnostics(settings, res) > 0 {
		return 1
	}

	switch *format {
	case "table":
		printModel(os.Stdout, res.Model)
	case "json":
		exp, err := exporter.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "weld: %v\n", err)
			return 2
		}
		data, err := exp.MarshalJSON(res.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "weld: %v\n", err)
			return 2
		}
		os.Stdout.Write(data)
		fmt.Println()
	default:
		fmt.Fprintf(os.Stderr, "weld: unsupported format %q (want table or json)\n", *format)
		return 2
	}
	return 0
}

func handleExport(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	rf := addRunFlags(fs, true)
	out := fs.String("o", "", "output path (default model.binpb or model.json)")
	format := fs.String("format", "binpb", "output format: binpb or json")
	descOut := fs.String("descriptor-out", "", "also write a FileDescriptorSet to this path")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := weld.Check(rf.options(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if printDiagnostics(settings, res) > 0 {
		return 1
	}

	exp, err := exporter.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}

	var data []byte
	switch *format {
	case "binpb":
		data, err = exp.Marshal(res.Model)
	case "json":
		data, err = exp.MarshalJSON(res.Model)
	default:
		fmt.Fprintf(os.Stderr, "weld: unsupported format %q (want binpb or json)\n", *format)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}

	target := *out
	if target == "" {
		target = "model." + *format
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	fmt.Printf("wrote %s (%d bytes)\n", target, len(data))

	if *descOut != "" {
		set, err := exp.DescriptorSet()
		if err != nil {
			fmt.Fprintf(os.Stderr, "weld: %v\n", err)
			return 2
		}
		if err := os.WriteFile(*descOut, set, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "weld: %v\n", err)
			return 2
		}
		fmt.Printf("wrote %s (%d bytes)\n", *descOut, len(set))
	}
	return 0
}

func handleHistory(settings *config.Settings, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	dir := fs.String("dir", ".", "project directory holding the ledger")
	limit := fs.Int("n", 20, "number of runs to list")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	path := settings.LedgerPath
	if path == "" {
		path = ledger.DefaultPath(*dir)
	}
	store, err := ledger.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return 0
	}
	for _, r := range runs {
		fmt.Printf("%s  %-5s  %-12.12s  %d file(s)  %d diagnostic(s)  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome, r.Fingerprint, r.Files, r.Diagnostics, r.ManifestPath)
	}
	return 0
}

func handleInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("f", config.ManifestName, "where to write the starter manifest")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if _, err := os.Stat(*path); err == nil {
		fmt.Fprintf(os.Stderr, "weld: %s already exists\n", *path)
		return 2
	}
	if err := os.WriteFile(*path, []byte(starterManifest), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		return 2
	}
	fmt.Printf("wrote %s\n", *path)
	return 0
}

func printModel(w io.Writer, mod *model.Model) {
	fmt.Fprintf(w, "package %s -> %s (fingerprint %-12.12s)\n", mod.Package, mod.Output, mod.Fingerprint)
	origin := "generated"
	if mod.Domain.External {
		origin = "external"
	}
	fmt.Fprintf(w, "domain %s (%s)\n", mod.Domain.Name, origin)
	for _, id := range mod.Domain.Identities {
		fmt.Fprintf(w, "  %3d  %-16s %s\n", id.Ordinal, id.Name, id.ConstName)
	}
	for _, c := range mod.Composites {
		fmt.Fprintf(w, "composite %s (%d elements)\n", c.Name, len(c.Elements))
		for _, el := range c.Elements {
			labels := ""
			if len(el.Labels) > 0 {
				labels = "  [" + strings.Join(el.Labels, " ") + "]"
			}
			fmt.Fprintf(w, "  %3d  %-16s %s%s\n", el.Position, el.Identity.Name, el.TypeExpr, labels)
		}
		for _, op := range c.Ops {
			fmt.Fprintf(w, "  op %-16s calls %s on positions %s (%s)\n",
				op.Name, op.Call, joinPositions(op.Selected), op.FilterDesc)
		}
	}
}

func joinPositions(positions []int) string {
	if len(positions) == 0 {
		return "none"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func main() {
	// Catch panics and show a short report instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(2)
		}
	}()

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "weld: %v\n", err)
		os.Exit(2)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "generate":
		os.Exit(handleGenerate(settings, args))
	case "check":
		os.Exit(handleCheck(settings, args))
	case "verify":
		os.Exit(handleVerify(settings, args))
	case "inspect":
		os.Exit(handleInspect(settings, args))
	case "export":
		os.Exit(handleExport(settings, args))
	case "history":
		os.Exit(handleHistory(settings, args))
	case "init":
		os.Exit(handleInit(args))
	case "version", "-version", "--version":
		fmt.Printf("weld %s\n", config.Version)
	case "help", "-help", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "weld: unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
}
