//go:build v8

package v8engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryguy/tscompiler/internal/core"
)

func TestEngine_Transpile(t *testing.T) {
	e, err := NewEngine(core.CompilerConfig{})
	require.NoError(t, err)
	defer e.Close()

	out, err := e.Transpile("const n: number = 1;\n", "n.ts", `{"target":4,"module":2}`)
	require.NoError(t, err)
	require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
	assert.True(t, strings.HasPrefix(out.OutputText, "define("))
	assert.Contains(t, out.OutputText, "const n = 1")
}

func TestEngine_HostErrorSurfaces(t *testing.T) {
	e, err := NewEngine(core.CompilerConfig{})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Transpile("x", "x.ts", "{bad")
	require.Error(t, err)

	out, err := e.Transpile("let y = 2;", "y.ts", `{"target":7}`)
	require.NoError(t, err)
	assert.Contains(t, out.OutputText, "let y = 2")
}

func TestRuntime_RegisterFuncRejectsNonString(t *testing.T) {
	e, err := NewEngine(core.CompilerConfig{})
	require.NoError(t, err)
	defer e.Close()

	err = e.rt.RegisterFunc("bad", func(n int) string { return "" })
	require.Error(t, err)
}
