package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RebuildOnChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src", "app", "users")
	require.NoError(t, os.MkdirAll(src, 0o755))

	service := filepath.Join(src, "user.service.ts")
	require.NoError(t, os.WriteFile(service, []byte(`
import { Injectable } from '@angular/core';

@Injectable({ providedIn: 'root' })
export class UserService {}
`), 0o644))

	w, err := NewWatcher(Config{Root: root, DebounceDelay: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Touch the file after the watcher is live.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(service, []byte(`
import { Injectable } from '@angular/core';

@Injectable({ providedIn: 'root' })
export class UserService {
  load(): void {}
}
`), 0o644))

	select {
	case ev := <-w.Events():
		require.NoError(t, ev.Err)
		require.NotNil(t, ev.Result)
		assert.Contains(t, ev.Changed, "src/app/users/user.service.ts")
		entities, _ := ev.Result.Graph.Len()
		assert.Equal(t, 1, entities)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild event")
	}

	cancel()
	assert.NoError(t, w.Stop())
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(Config{Root: root, DebounceDelay: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0o644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected rebuild for %v", ev.Changed)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	assert.NoError(t, w.Stop())
}

// Only the processing goroutine closes the event channel, so Stop
// cannot race a rebuild delivering its result.
func TestWatcher_EventsCloseAfterShutdown(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(Config{Root: root, DebounceDelay: 30 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "channel must close once processing stops")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel never closed")
	}
}

func TestSkippedDir(t *testing.T) {
	assert.True(t, skippedDir("node_modules"))
	assert.True(t, skippedDir(".git"))
	assert.True(t, skippedDir("dist"))
	assert.False(t, skippedDir("src"))
}
