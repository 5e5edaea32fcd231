package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptFilter(t *testing.T) {
	assert.True(t, TypeScriptFilter("a/b.ts"))
	assert.True(t, TypeScriptFilter("view.tsx"))
	assert.False(t, TypeScriptFilter("types.d.ts"))
	assert.False(t, TypeScriptFilter("out.js"))
	assert.False(t, TypeScriptFilter("out.js.map"))
}

func TestSkipDir(t *testing.T) {
	assert.True(t, skipDir("node_modules"))
	assert.True(t, skipDir(".git"))
	assert.False(t, skipDir("src"))
}

func TestFileWatcher_BatchesChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(sub, 0o755))

	fw, err := NewFileWatcher(50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer fw.Close()
	fw.AddFilter(TypeScriptFilter)
	require.NoError(t, fw.AddRecursive(root))

	batches := make(chan []string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fw.Run(ctx, func(paths []string) { batches <- paths }) }()

	a := filepath.Join(sub, "a.ts")
	b := filepath.Join(root, "b.ts")
	require.NoError(t, os.WriteFile(a, []byte("let a = 1;"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("let b = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("let a = 2;"), 0o644))

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case paths := <-batches:
			for _, p := range paths {
				seen[p] = true
			}
		case <-deadline:
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.Equal(t, map[string]bool{a: true, b: true}, seen)
}
