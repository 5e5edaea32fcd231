package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryguy/tscompiler"
	"github.com/cryguy/tscompiler/internal/output"
	"github.com/cryguy/tscompiler/internal/watcher"
)

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Compile a directory, then recompile files as they change",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runWatch,
	}
	cmd.Flags().StringP(keyOutDir, "o", "dist", "directory for compiled output")
	cmd.Flags().Bool(keyBrotli, false, "also write brotli-compressed .js.br files")
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "quiet period before recompiling")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.watch(ctx, cmd, args[0])
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, root string) error {
	opts, err := a.compileOptions()
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString(keyOutDir)
	brotli, _ := cmd.Flags().GetBool(keyBrotli)
	debounce, _ := cmd.Flags().GetDuration("debounce")

	absOut, _ := filepath.Abs(outDir)
	cfg, err := a.compilerConfig()
	if err != nil {
		return err
	}
	log := cfg.Logger
	c := tscompiler.New(cfg)
	defer shutdown(c)
	w := &output.Writer{Dir: outDir, Brotli: brotli}

	fw, err := watcher.NewFileWatcher(debounce, log)
	if err != nil {
		return err
	}
	defer fw.Close()
	fw.AddFilter(watcher.TypeScriptFilter)
	fw.AddFilter(func(path string) bool {
		abs, err := filepath.Abs(path)
		return err != nil || !isWithin(abs, absOut)
	})
	if err := fw.AddRecursive(root); err != nil {
		return err
	}

	files, err := findSources(root)
	if err != nil {
		return err
	}
	failed := a.compileAll(c, root, files, opts, w, func() {})
	fmt.Fprintf(a.stderr, "compiled %d file(s), %d failed; watching %s\n", len(files)-failed, failed, root)

	return fw.Run(ctx, func(paths []string) {
		failed := a.compileAll(c, root, paths, opts, w, func() {})
		log.Info("recompiled", "files", len(paths), "failed", failed)
		fmt.Fprintf(a.stderr, "recompiled %d file(s), %d failed\n", len(paths), failed)
	})
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
