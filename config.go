package tscompiler

import (
	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/gojaengine"
)

// Config holds runtime configuration for a Compiler.
type Config = core.CompilerConfig

// CompilerMode selects the engine that hosts the compiler program.
type CompilerMode = core.CompilerMode

// Compiler modes.
const (
	ModeTypeScript = core.ModeTypeScript
	ModeFast       = core.ModeFast
)

// ParseCompilerMode accepts "typescript" or "fast" in any case.
var ParseCompilerMode = core.ParseCompilerMode

// DefaultConfig returns a Config with the default wait budget, file name,
// mode and logger filled in.
func DefaultConfig() Config {
	return core.CompilerConfig{}.WithDefaults()
}

// Backend names the script engine used in the given mode.
func Backend(mode CompilerMode) string {
	if mode == ModeFast {
		return fastBackend
	}
	return "goja"
}

func engineFactory(cfg Config) core.EngineFactory {
	if cfg.Mode == ModeFast {
		return newFastEngineFactory(cfg)
	}
	return gojaengine.NewFactory(cfg)
}
