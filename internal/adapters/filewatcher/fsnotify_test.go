package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

func TestFSNotifyWatcher_Creation(t *testing.T) {
	watcher, err := NewFSNotifyWatcher([]string{".txt", "md"}, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if !watcher.isWatchedExtension("notes/README.MD") {
		t.Error("extension match should be case-insensitive and accept names without a dot")
	}
}

func TestFSNotifyWatcher_DefaultExtensions(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	if len(watcher.extensions) != 3 {
		t.Errorf("expected 3 default extensions, got %d", len(watcher.extensions))
	}
	if watcher.isWatchedExtension("report.pdf") {
		t.Error("pdf is not an eligible document")
	}
}

func TestFSNotifyWatcher_WatchDirectory(t *testing.T) {
	dir := t.TempDir()

	watcher, _ := NewFSNotifyWatcher([]string{".txt"}, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "test.txt"), []byte("hi"), 0644)
	}()

	select {
	case event := <-events:
		if event.Operation != ports.FileCreated {
			t.Errorf("expected create event, got %v", event.Operation)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for event")
	}
}

func TestFSNotifyWatcher_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested", "deeper")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(filepath.Join(sub, "deep.log"), []byte("line"), 0644)
	}()

	select {
	case event := <-events:
		if filepath.Base(event.Path) != "deep.log" {
			t.Errorf("unexpected event path %s", event.Path)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for event in subdirectory")
	}
}

func TestFSNotifyWatcher_DirectoryMovedIn(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "docs")
	staged := filepath.Join(base, "batch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(staged, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staged, "doc.txt"), []byte("moved"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := os.Rename(staged, filepath.Join(dir, "batch")); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-events:
		if event.Operation != ports.FileCreated || filepath.Base(event.Path) != "batch" {
			t.Errorf("expected create of batch, got %v %s", event.Operation, event.Path)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for moved-in directory")
	}

	// the new directory is watched too
	os.WriteFile(filepath.Join(dir, "batch", "later.md"), []byte("x"), 0644)
	for {
		select {
		case event := <-events:
			if filepath.Base(event.Path) == "later.md" {
				return
			}
		case <-ctx.Done():
			t.Fatal("timeout waiting for event inside moved-in directory")
		}
	}
}

func TestFSNotifyWatcher_DirectoryMovedOut(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "docs")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "doc.txt"), []byte("gone soon"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := os.Rename(sub, filepath.Join(base, "elsewhere")); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-events:
		if event.Path != sub {
			t.Errorf("expected event for %s, got %s", sub, event.Path)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for moved-out directory")
	}
}

func TestFSNotifyWatcher_DirectoryRemoved(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "empty")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := os.Remove(sub); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-events:
		if event.Path != sub {
			t.Errorf("expected event for %s, got %s", sub, event.Path)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for removed directory")
	}
}

func TestFSNotifyWatcher_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()

	watcher, _ := NewFSNotifyWatcher([]string{".txt"}, nil)
	defer watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	events, _ := watcher.Watch(ctx, dir)

	os.WriteFile(filepath.Join(dir, "test.json"), []byte("{}"), 0644)

	select {
	case <-events:
		t.Error("should not receive event for .json")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSNotifyWatcher_MissingDirectory(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	defer watcher.Stop()

	if _, err := watcher.Watch(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	watcher, _ := NewFSNotifyWatcher(nil, nil)
	err := watcher.Stop()
	if err != nil {
		t.Errorf("stop failed: %v", err)
	}
}
