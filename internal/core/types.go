package core

import (
	"fmt"
	"strings"
)

// Target is the output language version, numbered like TypeScript's ScriptTarget.
type Target int

const (
	ES3    Target = 0
	ES5    Target = 1
	ES2015 Target = 2
	ES2016 Target = 3
	ES2017 Target = 4
	ES2018 Target = 5
	ES2019 Target = 6
	ES2020 Target = 7
	ES2021 Target = 8
	ES2022 Target = 9
	ESNext Target = 99
)

// ES6 is an alias of ES2015.
const ES6 = ES2015

var targetNames = map[Target]string{
	ES3:    "ES3",
	ES5:    "ES5",
	ES2015: "ES2015",
	ES2016: "ES2016",
	ES2017: "ES2017",
	ES2018: "ES2018",
	ES2019: "ES2019",
	ES2020: "ES2020",
	ES2021: "ES2021",
	ES2022: "ES2022",
	ESNext: "ESNext",
}

func (t Target) String() string {
	if s, ok := targetNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// ParseTarget accepts a target name such as "es2017" or "esnext".
func ParseTarget(s string) (Target, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "ES6" {
		return ES2015, nil
	}
	for t, n := range targetNames {
		if strings.ToUpper(n) == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown target %q", s)
}

// ModuleKind is the output module wrapping style, numbered like
// TypeScript's ModuleKind.
type ModuleKind int

const (
	ModuleNone     ModuleKind = 0
	ModuleCommonJS ModuleKind = 1
	ModuleAMD      ModuleKind = 2
	ModuleUMD      ModuleKind = 3
	ModuleSystem   ModuleKind = 4
	ModuleES2015   ModuleKind = 5
	ModuleES2020   ModuleKind = 6
	ModuleES2022   ModuleKind = 7
	ModuleESNext   ModuleKind = 99
)

var moduleNames = map[ModuleKind]string{
	ModuleNone:     "None",
	ModuleCommonJS: "CommonJS",
	ModuleAMD:      "AMD",
	ModuleUMD:      "UMD",
	ModuleSystem:   "System",
	ModuleES2015:   "ES2015",
	ModuleES2020:   "ES2020",
	ModuleES2022:   "ES2022",
	ModuleESNext:   "ESNext",
}

func (m ModuleKind) String() string {
	if s, ok := moduleNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ModuleKind(%d)", int(m))
}

// ParseModuleKind accepts a module kind name such as "amd" or "commonjs".
// "es6" and "esm" are accepted as ES2015.
func ParseModuleKind(s string) (ModuleKind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "ES6", "ESM":
		return ModuleES2015, nil
	case "SYSTEMJS":
		return ModuleSystem, nil
	}
	for m, n := range moduleNames {
		if strings.ToUpper(n) == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown module kind %q", s)
}

// IsESModule reports whether the module kind emits import/export syntax.
func (m ModuleKind) IsESModule() bool {
	switch m {
	case ModuleES2015, ModuleES2020, ModuleES2022, ModuleESNext:
		return true
	}
	return false
}

// CompileOptions controls a single transpilation. Nil pointer fields are
// omitted from the JSON handed to the embedded compiler so that it applies
// its own defaults.
type CompileOptions struct {
	Target          Target     `json:"target"`
	Module          ModuleKind `json:"module"`
	SourceMap       *bool      `json:"sourceMap,omitempty"`
	RemoveComments  *bool      `json:"removeComments,omitempty"`
	IsolatedModules *bool      `json:"isolatedModules,omitempty"`
}

// Bool returns a pointer to b, for the optional CompileOptions fields.
func Bool(b bool) *bool {
	return &b
}

// CompiledModule is the result of one compile round-trip.
type CompiledModule struct {
	FileName   string   `json:"fileName"`
	Success    bool     `json:"success"`
	SourceCode string   `json:"sourceCode,omitempty"`
	SourceMap  string   `json:"sourceMap,omitempty"`
	Messages   []string `json:"messages"`
}

// Failed builds an unsuccessful result carrying the given messages.
func Failed(fileName string, messages ...string) *CompiledModule {
	return &CompiledModule{FileName: fileName, Messages: messages}
}

// Category is a diagnostic severity, numbered like TypeScript's
// DiagnosticCategory.
type Category int

const (
	CategoryWarning    Category = 0
	CategoryError      Category = 1
	CategorySuggestion Category = 2
	CategoryMessage    Category = 3
)

func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "Warning"
	case CategoryError:
		return "Error"
	case CategorySuggestion:
		return "Suggestion"
	case CategoryMessage:
		return "Message"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Diagnostic is a single compiler message as reported by the bridging function.
type Diagnostic struct {
	Category    Category `json:"category"`
	Code        int      `json:"code"`
	Start       int      `json:"start"`
	Length      int      `json:"length"`
	MessageText string   `json:"messageText"`
	FileName    string   `json:"fileName,omitempty"`
}

// String formats the diagnostic the way CompiledModule.Messages carries it.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%s", d.Code, d.MessageText)
}

// TranspileOutput is the decoded return value of the engine's bridging function.
type TranspileOutput struct {
	OutputText    string       `json:"outputText"`
	SourceMapText string       `json:"sourceMapText"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
}

// HasErrors reports whether any diagnostic is an error.
func (o *TranspileOutput) HasErrors() bool {
	for _, d := range o.Diagnostics {
		if d.Category == CategoryError {
			return true
		}
	}
	return false
}
