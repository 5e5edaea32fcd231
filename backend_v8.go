//go:build v8

package tscompiler

import (
	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/v8engine"
)

// fastBackend is the native engine used in fast mode.
const fastBackend = "v8"

func newFastEngineFactory(cfg Config) core.EngineFactory {
	return v8engine.NewFactory(cfg)
}
