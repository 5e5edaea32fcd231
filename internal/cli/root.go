// Package cli implements the tscompile command line.
//
// Settings come from, highest priority first: flags, TSCOMPILE_* environment
// variables (TSCOMPILE_TARGET, TSCOMPILE_SOURCE_MAP, ...), then the config
// file given by --config or .tscompile.yaml in the working directory.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cryguy/tscompiler"
)

const (
	keyTarget           = "target"
	keyModule           = "module"
	keySourceMap        = "source-map"
	keyRemoveComments   = "remove-comments"
	keyTimeout          = "timeout"
	keyExecutionTimeout = "execution-timeout"
	keyMemoryLimit      = "memory-limit"
	keyCompilerScript   = "compiler-script"
	keyMode             = "mode"
	keyLogLevel         = "log-level"
	keyOutDir           = "out-dir"
	keyBrotli           = "brotli"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	stdout  io.Writer
	stderr  io.Writer
}

// Execute runs the root command against the process's args and streams.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}

// NewRootCommand builds the command tree with its own viper instance.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "tscompile",
		Short: "Compile TypeScript to JavaScript through an embedded script engine",
		Long: `tscompile transpiles TypeScript sources with the same single-engine
compile queue the tscompiler library uses.

Examples:
  tscompile compile app.ts                 # print JavaScript to stdout
  tscompile build src --out-dir dist       # compile a tree
  tscompile watch src --brotli             # recompile on change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .tscompile.yaml)")
	pf.String(keyTarget, "es5", "script target (es3, es5, es2015 ... es2022, esnext)")
	pf.String(keyModule, "amd", "module kind (none, commonjs, amd, umd, es2015, es2020, es2022, esnext)")
	pf.Bool(keySourceMap, true, "emit a source map")
	pf.Bool(keyRemoveComments, false, "drop comments from the output")
	pf.Duration(keyTimeout, tscompiler.DefaultTimeout, "how long to wait for each compile")
	pf.Duration(keyExecutionTimeout, 0, "engine watchdog per compile (0 disables)")
	pf.Int(keyMemoryLimit, 0, "engine heap limit in MB (0 keeps the engine default)")
	pf.String(keyCompilerScript, "", "path to a typescript.js to use instead of the built-in compiler")
	pf.String(keyMode, string(tscompiler.ModeTypeScript), "compiler mode: typescript (full TypeScript) or fast (esbuild, ES2015+ output)")
	pf.StringP(keyLogLevel, "l", "warn", "log level (debug, info, warn, error)")
	bindFlags(a.v, pf,
		keyTarget, keyModule, keySourceMap, keyRemoveComments, keyTimeout,
		keyExecutionTimeout, keyMemoryLimit, keyCompilerScript, keyMode, keyLogLevel,
	)

	root.AddCommand(a.compileCommand(), a.buildCommand(), a.watchCommand(), a.versionCommand())
	return root
}

// bindFlags makes each named flag the top-priority source for its viper key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		_ = v.BindPFlag(key, fs.Lookup(key))
	}
}

func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigType("yaml")
		a.v.SetConfigName(".tscompile")
	}
	a.v.SetEnvPrefix("TSCOMPILE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && a.cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func (a *app) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString(keyLogLevel))); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) compilerConfig() (tscompiler.Config, error) {
	mode, err := tscompiler.ParseCompilerMode(a.v.GetString(keyMode))
	if err != nil {
		return tscompiler.Config{}, err
	}
	return tscompiler.Config{
		Timeout:          a.v.GetDuration(keyTimeout),
		ExecutionTimeout: a.v.GetDuration(keyExecutionTimeout),
		MemoryLimitMB:    a.v.GetInt(keyMemoryLimit),
		CompilerScript:   a.v.GetString(keyCompilerScript),
		Mode:             mode,
		Logger:           a.logger(),
	}, nil
}

func (a *app) compileOptions() (tscompiler.CompileOptions, error) {
	target, err := tscompiler.ParseTarget(a.v.GetString(keyTarget))
	if err != nil {
		return tscompiler.CompileOptions{}, err
	}
	module, err := tscompiler.ParseModuleKind(a.v.GetString(keyModule))
	if err != nil {
		return tscompiler.CompileOptions{}, err
	}
	opts := tscompiler.CompileOptions{
		Target:    target,
		Module:    module,
		SourceMap: tscompiler.Bool(a.v.GetBool(keySourceMap)),
	}
	if a.v.GetBool(keyRemoveComments) {
		opts.RemoveComments = tscompiler.Bool(true)
	}
	return opts, nil
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the script engine backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.compilerConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "tscompile (mode: %s, engine: %s)\n", cfg.Mode, tscompiler.Backend(cfg.Mode))
			return nil
		},
	}
}
