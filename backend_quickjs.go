//go:build !v8

package tscompiler

import (
	"github.com/cryguy/tscompiler/internal/core"
	"github.com/cryguy/tscompiler/internal/quickjs"
)

// fastBackend is the native engine used in fast mode.
const fastBackend = "quickjs"

func newFastEngineFactory(cfg Config) core.EngineFactory {
	return quickjs.NewFactory(cfg)
}
