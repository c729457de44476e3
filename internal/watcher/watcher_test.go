// file: internal/watcher/watcher_test.go
// version: 1.1.0
// guid: d4e5f6a7-b8c9-4012-def0-456789012345

package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsBackupFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"library-backup.json", true},
		{"BACKUP.JSON", true},
		{"/some/dir/export.json", true},
		{".hidden.json", false},
		{"backup.json.part", false},
		{"notes.txt", false},
		{"backup", false},
	}
	for _, tt := range tests {
		if got := IsBackupFile(tt.name); got != tt.want {
			t.Errorf("IsBackupFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSettledFileTriggersCallback(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	var mu sync.Mutex
	var gotPath string
	w := New(func(path string) {
		calls.Add(1)
		mu.Lock()
		gotPath = path
		mu.Unlock()
	}, 100*time.Millisecond)

	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	f := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(f, []byte(`{"library":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(400 * time.Millisecond)

	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 callback, got %d", c)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != f {
		t.Errorf("callback path = %q, want %q", gotPath, f)
	}
}

func TestRepeatedWritesCollapse(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w := New(func(string) { calls.Add(1) }, 200*time.Millisecond)

	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	f := filepath.Join(dir, "backup.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(f, []byte(`{"chunk":true}`), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)

	if c := calls.Load(); c != 1 {
		t.Errorf("expected writes to collapse into 1 callback, got %d", c)
	}
}

func TestNonBackupFilesIgnored(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w := New(func(string) { calls.Add(1) }, 100*time.Millisecond)

	if err := w.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if c := calls.Load(); c != 0 {
		t.Errorf("non-backup file triggered %d callbacks", c)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(func(string) {}, 100*time.Millisecond)
	if err := w.Start(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
