package core

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeout is how long a caller waits for its compilation.
const DefaultTimeout = 30 * time.Second

// DefaultFileName is attributed to sources compiled without a file name.
const DefaultFileName = "module.ts"

// CompilerMode selects the script engine that hosts the compiler program.
type CompilerMode string

const (
	// ModeTypeScript runs the TypeScript compiler itself in a goja VM. Every
	// target and module kind is honoured.
	ModeTypeScript CompilerMode = "typescript"
	// ModeFast runs the built-in esbuild-backed program in the build's native
	// engine. Targets below ES2015 are emitted as ES2015.
	ModeFast CompilerMode = "fast"
)

// ParseCompilerMode accepts a mode name in any case. The empty string is
// ModeTypeScript.
func ParseCompilerMode(s string) (CompilerMode, error) {
	switch CompilerMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTypeScript:
		return ModeTypeScript, nil
	case ModeFast:
		return ModeFast, nil
	}
	return "", fmt.Errorf("unknown compiler mode %q", s)
}

// CompilerConfig holds runtime configuration for the compiler.
type CompilerConfig struct {
	Timeout          time.Duration // caller-side wait budget per compile
	ExecutionTimeout time.Duration // engine watchdog per compile, 0 disables
	MemoryLimitMB    int           // engine heap limit, 0 leaves the engine default
	CompilerScript   string        // path to a TypeScript compiler program; empty uses the embedded one
	Mode             CompilerMode
	DefaultFileName  string
	Logger           *slog.Logger
}

// WithDefaults returns a copy of cfg with zero fields filled in.
func (cfg CompilerConfig) WithDefaults() CompilerConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeTypeScript
	}
	if cfg.DefaultFileName == "" {
		cfg.DefaultFileName = DefaultFileName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
