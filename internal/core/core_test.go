package core

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"es5", ES5},
		{"ES2017", ES2017},
		{" esnext ", ESNext},
		{"es6", ES2015},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseTarget("es1999")
	assert.Error(t, err)
}

func TestParseModuleKind(t *testing.T) {
	tests := []struct {
		in   string
		want ModuleKind
	}{
		{"amd", ModuleAMD},
		{"CommonJS", ModuleCommonJS},
		{"none", ModuleNone},
		{"esm", ModuleES2015},
		{"systemjs", ModuleSystem},
	}
	for _, tt := range tests {
		got, err := ParseModuleKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseModuleKind("iife")
	assert.Error(t, err)
}

func TestTargetNamesRoundTrip(t *testing.T) {
	targets := make([]interface{}, 0, len(targetNames))
	for tg := range targetNames {
		targets = append(targets, tg)
	}

	properties := gopter.NewProperties(nil)
	properties.Property("ParseTarget inverts String", prop.ForAll(
		func(v interface{}) bool {
			tg := v.(Target)
			got, err := ParseTarget(tg.String())
			return err == nil && got == tg
		},
		gen.OneConstOf(targets...),
	))
	properties.TestingRun(t)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Category: CategoryError, Code: 1005, MessageText: "';' expected."}
	assert.Equal(t, "1005:';' expected.", d.String())
	assert.Equal(t, "Error", d.Category.String())
}

func TestTranspileOutputHasErrors(t *testing.T) {
	out := &TranspileOutput{Diagnostics: []Diagnostic{{Category: CategoryWarning}, {Category: CategoryMessage}}}
	assert.False(t, out.HasErrors())
	out.Diagnostics = append(out.Diagnostics, Diagnostic{Category: CategoryError})
	assert.True(t, out.HasErrors())
}

func TestCompileRequest_Lifecycle(t *testing.T) {
	req := NewCompileRequest("let a;", "a.ts", CompileOptions{})
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StateCreated, req.State())
	assert.Nil(t, req.Result())

	req.MarkQueued()
	assert.Equal(t, StateQueued, req.State())
	require.True(t, req.Begin())
	assert.False(t, req.Begin())

	req.Complete(&CompiledModule{FileName: "a.ts", Success: true})
	req.Complete(Failed("a.ts", "ignored"))
	assert.Equal(t, StateCompleted, req.State())

	m := req.Result()
	require.NotNil(t, m)
	assert.True(t, m.Success)
	assert.Equal(t, StateConsumed, req.State())
}

func TestCompileRequest_AbandonBeforeStart(t *testing.T) {
	req := NewCompileRequest("", "a.ts", CompileOptions{})
	req.MarkQueued()
	req.Abandon()

	assert.True(t, req.Abandoned())
	assert.Equal(t, StateTimedOut, req.State())
	assert.False(t, req.Begin())
}

func TestCompileRequest_AbandonAfterCompletion(t *testing.T) {
	req := NewCompileRequest("", "a.ts", CompileOptions{})
	req.MarkQueued()
	req.Begin()
	req.Complete(&CompiledModule{Success: true})
	req.Abandon()

	assert.Equal(t, StateCompleted, req.State())
}

func TestCompilerConfigDefaults(t *testing.T) {
	cfg := CompilerConfig{}.WithDefaults()
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultFileName, cfg.DefaultFileName)
	assert.NotNil(t, cfg.Logger)
	assert.Zero(t, cfg.ExecutionTimeout)
	assert.Equal(t, ModeTypeScript, cfg.Mode)

	fast := CompilerConfig{Mode: ModeFast}.WithDefaults()
	assert.Equal(t, ModeFast, fast.Mode)
}

func TestParseCompilerMode(t *testing.T) {
	for in, want := range map[string]CompilerMode{
		"":           ModeTypeScript,
		"typescript": ModeTypeScript,
		" Fast ":     ModeFast,
	} {
		got, err := ParseCompilerMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompilerMode("turbo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}
