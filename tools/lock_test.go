package tools

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// useTempDataDir points the package at a fresh data directory for one test.
func useTempDataDir(t *testing.T) string {
	t.Helper()
	oldDataDir := dataDir
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = oldDataDir })

	for _, sub := range []string{"search", sourcesDir} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			t.Fatalf("Failed to create %s dir: %v", sub, err)
		}
	}
	return dataDir
}

func TestLockMechanism(t *testing.T) {
	useTempDataDir(t)
	lockPath := dataPath(lockFile)

	t.Run("acquire and release lock", func(t *testing.T) {
		os.Remove(lockPath)

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}

		data, err := os.ReadFile(lockPath)
		if err != nil {
			t.Fatalf("Lock file not found: %v", err)
		}
		pid, err := strconv.Atoi(string(data))
		if err != nil {
			t.Fatalf("Invalid PID in lock file: %v", err)
		}
		if pid != os.Getpid() {
			t.Errorf("Lock has wrong PID: got %d, want %d", pid, os.Getpid())
		}

		if err := releaseLock(); err != nil {
			t.Fatalf("Failed to release lock: %v", err)
		}
		if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
			t.Error("Lock file should be removed after release")
		}
	})

	t.Run("detect stale lock", func(t *testing.T) {
		os.Remove(lockPath)

		// PIDs this high are beyond the default pid_max
		stalePID := 4194304 + 12345
		if err := os.WriteFile(lockPath, []byte(strconv.Itoa(stalePID)), 0644); err != nil {
			t.Fatalf("Failed to create stale lock: %v", err)
		}

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock after stale lock: %v", err)
		}

		data, _ := os.ReadFile(lockPath)
		pid, _ := strconv.Atoi(string(data))
		if pid != os.Getpid() {
			t.Errorf("Expected our PID after cleaning stale lock, got %d", pid)
		}

		releaseLock()
	})

	t.Run("corrupted lock is replaced", func(t *testing.T) {
		os.Remove(lockPath)

		if err := os.WriteFile(lockPath, []byte("not-a-pid"), 0644); err != nil {
			t.Fatalf("Failed to create corrupted lock: %v", err)
		}
		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock over corrupted file: %v", err)
		}
		releaseLock()
	})

	t.Run("reacquire same lock", func(t *testing.T) {
		os.Remove(lockPath)

		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to acquire lock: %v", err)
		}
		if err := acquireLock(); err != nil {
			t.Fatalf("Failed to reacquire lock: %v", err)
		}

		releaseLock()
	})

	t.Run("release leaves foreign lock", func(t *testing.T) {
		os.Remove(lockPath)

		foreign := strconv.Itoa(os.Getpid() + 1)
		if err := os.WriteFile(lockPath, []byte(foreign), 0644); err != nil {
			t.Fatalf("Failed to create foreign lock: %v", err)
		}
		if err := releaseLock(); err != nil {
			t.Fatalf("releaseLock returned error: %v", err)
		}
		if _, err := os.Stat(lockPath); err != nil {
			t.Error("Foreign lock file should not be removed")
		}
		os.Remove(lockPath)
	})

	t.Run("is process running", func(t *testing.T) {
		if !isProcessRunning(os.Getpid()) {
			t.Error("Our own process should be detected as running")
		}
		if isProcessRunning(4194304 + 12345) {
			t.Error("Non-existent process should not be detected as running")
		}
		if isProcessRunning(0) {
			t.Error("PID 0 should not be detected as running")
		}
	})
}
