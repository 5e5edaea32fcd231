// Package transform is the host side of the built-in compiler program: it
// turns TypeScript compiler options into an esbuild transform and reports
// the outcome in the same shape ts.transpileModule does.
package transform

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/cryguy/tscompiler/internal/core"
)

// Options is the subset of TypeScript compiler options the host transform
// understands. Unknown keys in the incoming JSON are ignored.
type Options struct {
	Target         *core.Target     `json:"target,omitempty"`
	Module         *core.ModuleKind `json:"module,omitempty"`
	SourceMap      *bool            `json:"sourceMap,omitempty"`
	RemoveComments *bool            `json:"removeComments,omitempty"`
}

// Diagnostic codes for messages the host raises itself. esbuild messages
// carry no numeric code and are reported with code 0.
const (
	CodeTargetLowered     = 9001
	CodeModuleUnsupported = 9002
	CodeCommentsDropped   = 9003
)

var esbuildTargets = map[core.Target]esbuild.Target{
	core.ES2015: esbuild.ES2015,
	core.ES2016: esbuild.ES2016,
	core.ES2017: esbuild.ES2017,
	core.ES2018: esbuild.ES2018,
	core.ES2019: esbuild.ES2019,
	core.ES2020: esbuild.ES2020,
	core.ES2021: esbuild.ES2021,
	core.ES2022: esbuild.ES2022,
	core.ESNext: esbuild.ESNext,
}

// Transpile runs one esbuild transform of source. Option problems are
// reported as diagnostics, never as errors.
func Transpile(source, fileName string, opts Options) *core.TranspileOutput {
	out := &core.TranspileOutput{Diagnostics: []core.Diagnostic{}}

	target := core.ES5
	if opts.Target != nil {
		target = *opts.Target
	}
	esTarget, ok := esbuildTargets[target]
	if !ok {
		// esbuild cannot lower ES2015+ syntax to ES5 or ES3.
		esTarget = esbuild.ES2015
		out.Diagnostics = append(out.Diagnostics, core.Diagnostic{
			Category:    core.CategoryMessage,
			Code:        CodeTargetLowered,
			MessageText: fmt.Sprintf("target %s is emitted as ES2015 by the built-in transpiler", target),
			FileName:    fileName,
		})
	}

	module := core.ModuleNone
	if opts.Module != nil {
		module = *opts.Module
	}
	var format esbuild.Format
	switch {
	case module == core.ModuleNone, module == core.ModuleCommonJS, module == core.ModuleAMD, module == core.ModuleUMD:
		// TypeScript emits CommonJS for module None when the file has
		// import or export syntax; a plain script passes through unchanged.
		// AMD and UMD wrappers are applied around CommonJS output by the
		// compiler program.
		format = esbuild.FormatCommonJS
	case module.IsESModule():
		format = esbuild.FormatESModule
	default:
		out.Diagnostics = append(out.Diagnostics, core.Diagnostic{
			Category:    core.CategoryError,
			Code:        CodeModuleUnsupported,
			MessageText: fmt.Sprintf("module kind %s is not supported by the built-in transpiler", module),
			FileName:    fileName,
		})
		return out
	}

	loader := esbuild.LoaderTS
	if strings.EqualFold(path.Ext(fileName), ".tsx") {
		loader = esbuild.LoaderTSX
	}

	topts := esbuild.TransformOptions{
		Loader:        loader,
		Sourcefile:    fileName,
		Target:        esTarget,
		Format:        format,
		LegalComments: esbuild.LegalCommentsInline,
	}
	if opts.SourceMap != nil && *opts.SourceMap {
		topts.Sourcemap = esbuild.SourceMapExternal
	}
	if opts.RemoveComments != nil && *opts.RemoveComments {
		topts.LegalComments = esbuild.LegalCommentsNone
	} else if hasComments(source) {
		// esbuild keeps only legal comments (/*! ... */, @license, @preserve).
		out.Diagnostics = append(out.Diagnostics, core.Diagnostic{
			Category:    core.CategoryMessage,
			Code:        CodeCommentsDropped,
			MessageText: "comments other than legal comments are not preserved by the built-in transpiler",
			FileName:    fileName,
		})
	}

	result := esbuild.Transform(source, topts)

	for _, m := range result.Errors {
		out.Diagnostics = append(out.Diagnostics, toDiagnostic(source, fileName, core.CategoryError, m))
	}
	for _, m := range result.Warnings {
		out.Diagnostics = append(out.Diagnostics, toDiagnostic(source, fileName, core.CategoryWarning, m))
	}
	if len(result.Errors) > 0 {
		return out
	}

	out.OutputText = string(result.Code)
	out.SourceMapText = string(result.Map)
	return out
}

// TranspileJSON is the function registered in the engine as the host
// transform. It decodes the compiler options, transpiles, and returns the
// output as JSON.
func TranspileJSON(source, fileName, optionsJSON string) (string, error) {
	var opts Options
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
			return "", fmt.Errorf("decoding compiler options: %w", err)
		}
	}
	data, err := json.Marshal(Transpile(source, fileName, opts))
	if err != nil {
		return "", fmt.Errorf("encoding transform output: %w", err)
	}
	return string(data), nil
}

// toDiagnostic converts an esbuild message. esbuild reports a 1-based line
// and a byte column; start is the byte offset into source.
func toDiagnostic(source, fileName string, cat core.Category, m esbuild.Message) core.Diagnostic {
	d := core.Diagnostic{
		Category:    cat,
		MessageText: m.Text,
		FileName:    fileName,
	}
	if m.Location != nil {
		d.Start = lineOffset(source, m.Location.Line) + m.Location.Column
		d.Length = m.Location.Length
		if m.Location.File != "" {
			d.FileName = m.Location.File
		}
	}
	return d
}

// hasComments reports whether source may contain a comment. Comment markers
// inside string literals also count.
func hasComments(source string) bool {
	return strings.Contains(source, "//") || strings.Contains(source, "/*")
}

// lineOffset returns the byte offset of the start of the 1-based line.
func lineOffset(source string, line int) int {
	off := 0
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(source[off:], '\n')
		if nl < 0 {
			return len(source)
		}
		off += nl + 1
	}
	return off
}
