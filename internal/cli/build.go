package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cryguy/tscompiler"
	"github.com/cryguy/tscompiler/internal/output"
	"github.com/cryguy/tscompiler/internal/watcher"
)

// buildConcurrency bounds how many compiles one build keeps queued.
const buildConcurrency = 8

func (a *app) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Compile every TypeScript file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runBuild,
	}
	cmd.Flags().StringP(keyOutDir, "o", "dist", "directory for compiled output")
	cmd.Flags().Bool(keyBrotli, false, "also write brotli-compressed .js.br files")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	opts, err := a.compileOptions()
	if err != nil {
		return err
	}
	root := args[0]
	files, err := findSources(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(a.stderr, "no TypeScript files under %s\n", root)
		return nil
	}

	outDir, _ := cmd.Flags().GetString(keyOutDir)
	brotli, _ := cmd.Flags().GetBool(keyBrotli)
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	cfg, err := a.compilerConfig()
	if err != nil {
		return err
	}
	c := tscompiler.New(cfg)
	defer shutdown(c)
	w := &output.Writer{Dir: outDir, Brotli: brotli}

	var bar *progressbar.ProgressBar
	if !noProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("compiling"),
			progressbar.OptionSetWriter(a.stderr),
			progressbar.OptionSetWidth(20),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(a.stderr, "\n")
			}),
		)
	}

	failed := a.compileAll(c, root, files, opts, w, func() {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	fmt.Fprintf(a.stderr, "compiled %d file(s), %d failed\n", len(files)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to compile", failed, len(files))
	}
	return nil
}

// compileAll submits files concurrently and writes each result relative to
// root. It returns the number of files that failed.
func (a *app) compileAll(c *tscompiler.Compiler, root string, files []string, opts tscompiler.CompileOptions, w *output.Writer, tick func()) int {
	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
		sem    = make(chan struct{}, buildConcurrency)
	)
	for _, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			ok := a.compileOne(c, root, path, opts, w)
			mu.Lock()
			if !ok {
				failed++
			}
			tick()
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	return failed
}

func (a *app) compileOne(c *tscompiler.Compiler, root, path string, opts tscompiler.CompileOptions, w *output.Writer) bool {
	m, err := c.CompileFileWithOptions(path, opts)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", path, err)
		return false
	}
	a.report(path, m)
	if !m.Success {
		return false
	}
	rel, err := relativeTo(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	if _, err := w.Write(rel, m); err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", path, err)
		return false
	}
	return true
}

// findSources lists the TypeScript files under root, skipping hidden
// directories and node_modules.
func findSources(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if watcher.TypeScriptFilter(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

func relativeTo(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absRoot, absPath)
}
