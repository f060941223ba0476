package config

// Version is the weld tool version reported by `weld version` and
// recorded in the generation ledger.
const Version = "0.3.1"

// CodegenVersion changes whenever the shape of generated output changes.
// It participates in the layout fingerprint, so bumping it invalidates
// every stamp and forces regeneration.
const CodegenVersion = 1

// ManifestName is the default manifest filename.
const ManifestName = "weld.yaml"

// ManifestAltNames are alternative manifest filenames recognized by
// manifest discovery, in probe order after ManifestName.
var ManifestAltNames = []string{"weld.yml"}

// Filenames and directories used by the tool.
const (
	// WorkDirName is the per-project working directory (ledger, scratch).
	WorkDirName = ".weld"

	// LedgerFileName is the SQLite database inside WorkDirName.
	LedgerFileName = "ledger.db"

	// GeneratedSuffix is the conventional suffix for generated files.
	GeneratedSuffix = "_weld.go"
)

// GeneratedHeader is the marker line opening every generated file.
// Tools besides weld key off it (golang.org/x/tools and friends treat
// any "Code generated ... DO NOT EDIT." line as a generation marker).
const GeneratedHeader = "// Code generated by weld. DO NOT EDIT."

// FingerprintPrefix introduces the layout fingerprint stamp inside a
// generated file header. `weld verify` greps for it.
const FingerprintPrefix = "weld:fingerprint"
