package gojaengine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryguy/tscompiler/internal/core"
)

// typescriptEngine is shared by the tests that run the bundled compiler,
// which takes a while to load.
var typescriptEngine = sync.OnceValues(func() (*Engine, error) {
	return NewEngine(core.CompilerConfig{})
})

func bundled(t *testing.T) *Engine {
	t.Helper()
	e, err := typescriptEngine()
	require.NoError(t, err)
	return e
}

func optionsJSON(t *testing.T, opts core.CompileOptions) string {
	t.Helper()
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	return string(data)
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typescript.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestEngine_LowersToES5(t *testing.T) {
	src := "export const double = (a: number) => a * 2;\nexport class Point { x = 1 }\n"
	opts := core.CompileOptions{Target: core.ES5, Module: core.ModuleAMD, SourceMap: core.Bool(true)}

	out, err := bundled(t).Transpile(src, "point.ts", optionsJSON(t, opts))
	require.NoError(t, err)
	require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)

	assert.Contains(t, out.OutputText, `define(["require", "exports"]`)
	assert.NotContains(t, out.OutputText, "=>")
	assert.NotContains(t, out.OutputText, "const ")
	assert.NotContains(t, out.OutputText, "class Point")
	assert.NotContains(t, out.OutputText, ": number")
	assert.Contains(t, out.OutputText, "//# sourceMappingURL=point.js.map")

	var m struct {
		Version int    `json:"version"`
		File    string `json:"file"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.SourceMapText), &m))
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, "point.js", m.File)
}

func TestEngine_KeepsModernTargets(t *testing.T) {
	src := "const greet = (name: string) => `Hello ${name}`;"
	out, err := bundled(t).Transpile(src, "greet.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017, Module: core.ModuleNone}))
	require.NoError(t, err)

	assert.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
	assert.Contains(t, out.OutputText, "=>")
	assert.NotContains(t, out.OutputText, ": string")
	assert.Empty(t, out.SourceMapText)
}

func TestEngine_Comments(t *testing.T) {
	src := "// leading\nconst a = 1; /* trailing */\n"
	e := bundled(t)

	kept, err := e.Transpile(src, "c.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017}))
	require.NoError(t, err)
	assert.Contains(t, kept.OutputText, "// leading")
	assert.Contains(t, kept.OutputText, "/* trailing */")

	removed, err := e.Transpile(src, "c.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017, RemoveComments: core.Bool(true)}))
	require.NoError(t, err)
	assert.NotContains(t, removed.OutputText, "leading")
	assert.NotContains(t, removed.OutputText, "trailing")
}

func TestEngine_ModuleNoneWithExports(t *testing.T) {
	out, err := bundled(t).Transpile("export const a = 1;\n", "a.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017, Module: core.ModuleNone}))
	require.NoError(t, err)
	assert.Contains(t, out.OutputText, "exports.a = 1")
	assert.NotContains(t, out.OutputText, "export const")
}

func TestEngine_SyntaxError(t *testing.T) {
	out, err := bundled(t).Transpile("let x = ;", "bad.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017}))
	require.NoError(t, err)
	require.True(t, out.HasErrors())

	d := out.Diagnostics[0]
	assert.Equal(t, 1109, d.Code)
	assert.Equal(t, "Expression expected.", d.MessageText)
	assert.Equal(t, "bad.ts", d.FileName)
	assert.Equal(t, 8, d.Start)
}

func TestEngine_TypeErrorsAreNotReported(t *testing.T) {
	out, err := bundled(t).Transpile(`let x: number = "a";`, "x.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2017}))
	require.NoError(t, err)
	assert.Empty(t, out.Diagnostics)
	assert.Contains(t, out.OutputText, `let x = "a";`)
}

func TestEngine_MalformedOptionsDoesNotBreakEngine(t *testing.T) {
	e := bundled(t)

	_, err := e.Transpile("const a = 1;", "a.ts", "{not json")
	require.Error(t, err)

	out, err := e.Transpile("const b: number = 2;", "b.ts", optionsJSON(t, core.CompileOptions{Target: core.ES2020}))
	require.NoError(t, err)
	assert.False(t, out.HasErrors())
	assert.Contains(t, out.OutputText, "const b = 2")
}

func TestEngine_CustomCompilerScript(t *testing.T) {
	script := writeScript(t, `var ts = {
		transpileModule: function (input, o) {
			return {
				outputText: "custom:" + o.fileName + ":" + o.compilerOptions.target,
				diagnostics: [{ category: 1, code: 7, start: 2, length: 3, messageText: "bad" }]
			};
		},
		flattenDiagnosticMessageText: function (d) { return d; }
	};`)
	e, err := NewEngine(core.CompilerConfig{CompilerScript: script})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	out, err := e.Transpile("anything", "x.ts", `{"target":1}`)
	require.NoError(t, err)
	assert.Equal(t, "custom:x.ts:1", out.OutputText)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "7:bad", out.Diagnostics[0].String())
	assert.Equal(t, 2, out.Diagnostics[0].Start)
}

func TestEngine_ProgramInitializedByPromise(t *testing.T) {
	script := writeScript(t, `Promise.resolve().then(function () {
		globalThis.ts = {
			transpileModule: function () { return { outputText: "late", diagnostics: [] }; },
			flattenDiagnosticMessageText: function (d) { return d; }
		};
	});`)
	e, err := NewEngine(core.CompilerConfig{CompilerScript: script})
	require.NoError(t, err)

	out, err := e.Transpile("x", "x.ts", "{}")
	require.NoError(t, err)
	assert.Equal(t, "late", out.OutputText)
}

func TestEngine_ScriptErrors(t *testing.T) {
	_, err := NewEngine(core.CompilerConfig{CompilerScript: writeScript(t, "var notTypeScript = true;")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ts.transpileModule")

	_, err = NewEngine(core.CompilerConfig{CompilerScript: writeScript(t, "function {")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling")

	_, err = NewEngine(core.CompilerConfig{CompilerScript: filepath.Join(t.TempDir(), "nope.js")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEngine_ExecutionTimeout(t *testing.T) {
	script := writeScript(t, `var ts = {
		transpileModule: function (input) {
			if (input === "loop") { for (;;) {} }
			return { outputText: "ok:" + input, diagnostics: [] };
		},
		flattenDiagnosticMessageText: function (d) { return d; }
	};`)
	e, err := NewEngine(core.CompilerConfig{CompilerScript: script, ExecutionTimeout: 200 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = e.Transpile("loop", "x.ts", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)

	out, err := e.Transpile("fine", "x.ts", "{}")
	require.NoError(t, err)
	assert.Equal(t, "ok:fine", out.OutputText)
}
