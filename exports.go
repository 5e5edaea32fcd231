package tscompiler

import "github.com/cryguy/tscompiler/internal/core"

// Type aliases re-exporting internal/core types so callers can use
// tscompiler.CompileOptions etc. without importing the internal package.

type CompileOptions = core.CompileOptions
type CompiledModule = core.CompiledModule
type Target = core.Target
type ModuleKind = core.ModuleKind
type Diagnostic = core.Diagnostic
type Category = core.Category
type TranspileOutput = core.TranspileOutput
type ScriptEngine = core.ScriptEngine
type EngineFactory = core.EngineFactory

// Script targets, numbered like TypeScript's ScriptTarget.
const (
	ES3    = core.ES3
	ES5    = core.ES5
	ES2015 = core.ES2015
	ES2016 = core.ES2016
	ES2017 = core.ES2017
	ES2018 = core.ES2018
	ES2019 = core.ES2019
	ES2020 = core.ES2020
	ES2021 = core.ES2021
	ES2022 = core.ES2022
	ESNext = core.ESNext
)

// Module kinds, numbered like TypeScript's ModuleKind.
const (
	ModuleNone     = core.ModuleNone
	ModuleCommonJS = core.ModuleCommonJS
	ModuleAMD      = core.ModuleAMD
	ModuleUMD      = core.ModuleUMD
	ModuleSystem   = core.ModuleSystem
	ModuleES2015   = core.ModuleES2015
	ModuleES2020   = core.ModuleES2020
	ModuleES2022   = core.ModuleES2022
	ModuleESNext   = core.ModuleESNext
)

// Constants re-exported from core.
const (
	DefaultTimeout  = core.DefaultTimeout
	DefaultFileName = core.DefaultFileName
	TimeoutMessage  = core.TimeoutMessage
)

// Errors and functions re-exported from core.
var (
	ErrShutdown     = core.ErrShutdown
	Bool            = core.Bool
	ParseTarget     = core.ParseTarget
	ParseModuleKind = core.ParseModuleKind
)
