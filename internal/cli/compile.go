package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryguy/tscompiler"
	"github.com/cryguy/tscompiler/internal/output"
)

func (a *app) compileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile TypeScript files",
		Long: `Compile one or more TypeScript files. With a single file and no
--out-dir the JavaScript is printed to stdout; otherwise .js and .js.map files
are written to --out-dir.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runCompile,
	}
	cmd.Flags().StringP(keyOutDir, "o", "", "directory for compiled output")
	return cmd
}

func (a *app) runCompile(cmd *cobra.Command, args []string) error {
	opts, err := a.compileOptions()
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString(keyOutDir)
	if outDir == "" && len(args) > 1 {
		return fmt.Errorf("--out-dir is required when compiling more than one file")
	}

	if outDir == "" {
		// There is no file beside stdout for a source map to live in.
		opts.SourceMap = tscompiler.Bool(false)
	}

	cfg, err := a.compilerConfig()
	if err != nil {
		return err
	}
	c := tscompiler.New(cfg)
	defer shutdown(c)

	w := &output.Writer{Dir: outDir}
	failed := 0
	for _, path := range args {
		m, err := c.CompileFileWithOptions(path, opts)
		if err != nil {
			return err
		}
		a.report(path, m)
		if !m.Success {
			failed++
			continue
		}
		if outDir == "" {
			fmt.Fprint(a.stdout, m.SourceCode)
			continue
		}
		if _, err := w.Write(filepath.Base(path), m); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to compile", failed, len(args))
	}
	return nil
}

// report prints a module's messages to stderr, one per line.
func (a *app) report(path string, m *tscompiler.CompiledModule) {
	for _, msg := range m.Messages {
		fmt.Fprintf(a.stderr, "%s: %s\n", path, msg)
	}
}

func shutdown(c *tscompiler.Compiler) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = c.Shutdown(ctx)
}
