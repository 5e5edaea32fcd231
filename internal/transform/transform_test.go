package transform

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryguy/tscompiler/internal/core"
)

func target(t core.Target) *core.Target          { return &t }
func module(m core.ModuleKind) *core.ModuleKind { return &m }

func TestTranspile_StripsTypes(t *testing.T) {
	src := "const greet = (name: string) => `Hello ${name}`;"
	out := Transpile(src, "greet.ts", Options{Target: target(core.ES2017), Module: module(core.ModuleNone)})

	require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
	assert.Contains(t, out.OutputText, "greet")
	assert.Contains(t, out.OutputText, "=>")
	assert.NotContains(t, out.OutputText, ": string")
	assert.Empty(t, out.SourceMapText)
}

func TestTranspile_SyntaxError(t *testing.T) {
	src := "let x = ;\n"
	out := Transpile(src, "broken.ts", Options{Target: target(core.ES2017)})

	require.True(t, out.HasErrors())
	assert.Empty(t, out.OutputText)
	d := out.Diagnostics[0]
	assert.Equal(t, core.CategoryError, d.Category)
	assert.NotEmpty(t, d.MessageText)
	assert.Equal(t, "broken.ts", d.FileName)
	assert.Equal(t, 8, d.Start)
}

func TestTranspile_ErrorOffsetOnLaterLine(t *testing.T) {
	src := "const a = 1;\nconst b = ;\n"
	out := Transpile(src, "m.ts", Options{Target: target(core.ES2017)})

	require.True(t, out.HasErrors())
	assert.Equal(t, len("const a = 1;\n")+len("const b = "), out.Diagnostics[0].Start)
}

func TestTranspile_LowersOldTargets(t *testing.T) {
	for _, tt := range []core.Target{core.ES3, core.ES5} {
		t.Run(tt.String(), func(t *testing.T) {
			out := Transpile("let x: number = 1;", "m.ts", Options{Target: target(tt)})
			require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
			require.Len(t, out.Diagnostics, 1)
			assert.Equal(t, core.CategoryMessage, out.Diagnostics[0].Category)
			assert.Equal(t, CodeTargetLowered, out.Diagnostics[0].Code)
			assert.Contains(t, out.OutputText, "let x = 1")
		})
	}
}

func TestTranspile_ModuleFormats(t *testing.T) {
	src := "export const answer: number = 42;\n"
	tests := []struct {
		name    string
		module  core.ModuleKind
		want    string
		notWant string
	}{
		{"commonjs", core.ModuleCommonJS, "module.exports", "export const"},
		{"amd uses commonjs body", core.ModuleAMD, "module.exports", "export const"},
		{"umd uses commonjs body", core.ModuleUMD, "module.exports", "export const"},
		{"es2015", core.ModuleES2015, "export", "module.exports"},
		{"esnext", core.ModuleESNext, "export", "module.exports"},
		{"none with exports emits commonjs", core.ModuleNone, "module.exports", "export const"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Transpile(src, "m.ts", Options{Target: target(core.ES2020), Module: module(tt.module)})
			require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
			assert.Contains(t, out.OutputText, tt.want)
			assert.NotContains(t, out.OutputText, tt.notWant)
		})
	}
}

func TestTranspile_SystemUnsupported(t *testing.T) {
	out := Transpile("export const a = 1;", "m.ts", Options{Target: target(core.ES2020), Module: module(core.ModuleSystem)})
	require.True(t, out.HasErrors())
	assert.Equal(t, CodeModuleUnsupported, out.Diagnostics[0].Code)
	assert.Contains(t, out.Diagnostics[0].MessageText, "System")
}

func TestTranspile_SourceMap(t *testing.T) {
	out := Transpile("const a: number = 1;\n", "m.ts", Options{Target: target(core.ES2020), SourceMap: core.Bool(true)})
	require.False(t, out.HasErrors())
	require.NotEmpty(t, out.SourceMapText)

	var m struct {
		Version  int      `json:"version"`
		Sources  []string `json:"sources"`
		Mappings string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.SourceMapText), &m))
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, []string{"m.ts"}, m.Sources)
	assert.NotEmpty(t, m.Mappings)
}

func TestTranspile_RemoveComments(t *testing.T) {
	src := "/*! keep me */\nconst a = 1;\n"
	kept := Transpile(src, "m.ts", Options{Target: target(core.ES2020)})
	require.False(t, kept.HasErrors())
	assert.Contains(t, kept.OutputText, "keep me")

	removed := Transpile(src, "m.ts", Options{Target: target(core.ES2020), RemoveComments: core.Bool(true)})
	require.False(t, removed.HasErrors())
	assert.NotContains(t, removed.OutputText, "keep me")
}

func TestTranspile_NoneKeepsPlainScripts(t *testing.T) {
	out := Transpile("const a: number = 1;\nconsole.log(a);\n", "m.ts", Options{Target: target(core.ES2020), Module: module(core.ModuleNone)})
	require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
	assert.Equal(t, "const a = 1;\nconsole.log(a);\n", out.OutputText)
}

func TestTranspile_ReportsDroppedComments(t *testing.T) {
	src := "// keep me\n/* block */\nconst a = 1;\n"

	out := Transpile(src, "m.ts", Options{Target: target(core.ES2017)})
	require.False(t, out.HasErrors())
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, CodeCommentsDropped, out.Diagnostics[0].Code)
	assert.Equal(t, core.CategoryMessage, out.Diagnostics[0].Category)

	explicit := Transpile(src, "m.ts", Options{Target: target(core.ES2017), RemoveComments: core.Bool(false)})
	require.Len(t, explicit.Diagnostics, 1)
	assert.Equal(t, CodeCommentsDropped, explicit.Diagnostics[0].Code)

	removed := Transpile(src, "m.ts", Options{Target: target(core.ES2017), RemoveComments: core.Bool(true)})
	assert.Empty(t, removed.Diagnostics)
	assert.NotContains(t, removed.OutputText, "keep me")

	plain := Transpile("const a = 1;\n", "m.ts", Options{Target: target(core.ES2017)})
	assert.Empty(t, plain.Diagnostics)
}

func TestTranspile_TSXLoader(t *testing.T) {
	src := "const el = <div className=\"x\" />;\n"
	out := Transpile(src, "view.tsx", Options{Target: target(core.ES2020)})
	require.False(t, out.HasErrors(), "diagnostics: %v", out.Diagnostics)
	assert.Contains(t, out.OutputText, "createElement")

	plain := Transpile(src, "view.ts", Options{Target: target(core.ES2020)})
	assert.True(t, plain.HasErrors())
}

func TestTranspileJSON(t *testing.T) {
	raw, err := TranspileJSON("const a: string = 'x';", "m.ts", `{"target":4,"module":1,"sourceMap":true,"extra":"ignored"}`)
	require.NoError(t, err)

	var out core.TranspileOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.False(t, out.HasErrors())
	assert.True(t, strings.Contains(out.OutputText, "const a = \"x\"") || strings.Contains(out.OutputText, "const a = 'x'"))
	assert.NotEmpty(t, out.SourceMapText)
}

func TestTranspileJSON_MalformedOptions(t *testing.T) {
	_, err := TranspileJSON("const a = 1;", "m.ts", "{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding compiler options")
}

func TestLineOffset(t *testing.T) {
	src := "ab\ncd\nef"
	assert.Equal(t, 0, lineOffset(src, 1))
	assert.Equal(t, 3, lineOffset(src, 2))
	assert.Equal(t, 6, lineOffset(src, 3))
	assert.Equal(t, len(src), lineOffset(src, 9))
}
