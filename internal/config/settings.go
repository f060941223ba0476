package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings are the environment-driven knobs of the tool. Flags override
// them per invocation; the environment is for CI and shell profiles.
type Settings struct {
	// NoColor disables colored diagnostics even on a TTY.
	NoColor bool `env:"WELD_NO_COLOR"`

	// NoLedger disables recording generation runs to the ledger.
	NoLedger bool `env:"WELD_NO_LEDGER"`

	// LedgerPath overrides the default <manifest dir>/.weld/ledger.db.
	LedgerPath string `env:"WELD_LEDGER_PATH"`

	// Trace enables per-stage pipeline tracing on stderr.
	Trace bool `env:"WELD_TRACE"`
}

// LoadSettings parses Settings from the process environment.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &s, nil
}
