package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockTimeout   = 5 * time.Second // Max time to wait for lock
	lockRetryWait = 500 * time.Millisecond
)

// isProcessRunning is implemented in lock_unix.go and lock_windows.go.

// cleanStaleLock removes the lock file if the owning process is dead
func cleanStaleLock() error {
	lockPath := dataPath(lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Warnf("Corrupted lock file (invalid PID), removing")
		return os.Remove(lockPath)
	}

	if isProcessRunning(pid) {
		return fmt.Errorf("lock held by running process %d", pid)
	}

	logger.Infof("Stale lock detected (PID %d not running), cleaning", pid)
	return os.Remove(lockPath)
}

// acquireLock takes the inter-process index lock, waiting up to lockTimeout
// for another live process to release it.
func acquireLock() error {
	lockPath := dataPath(lockFile)
	ourPID := os.Getpid()

	if data, err := os.ReadFile(lockPath); err == nil {
		if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == ourPID {
			logger.Debugf("Lock already held by this process (PID %d)", ourPID)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	startTime := time.Now()
	for {
		if err := cleanStaleLock(); err != nil {
			elapsed := time.Since(startTime)
			if elapsed >= lockTimeout {
				return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed, err)
			}

			logger.Infof("Index locked by another process, waiting (%v elapsed)", elapsed.Round(100*time.Millisecond))
			time.Sleep(lockRetryWait)
			continue
		}

		// O_EXCL so two processes racing past cleanStaleLock cannot both win
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return fmt.Errorf("failed to create lock file: %w", err)
		}
		_, werr := f.WriteString(strconv.Itoa(ourPID))
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			os.Remove(lockPath)
			return fmt.Errorf("failed to write lock file: %w", werr)
		}

		logger.Infof("Index lock acquired (PID %d)", ourPID)
		return nil
	}
}

// releaseLock removes the lock file if this process owns it
func releaseLock() error {
	lockPath := dataPath(lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && pid != os.Getpid() {
		logger.Warnf("Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	logger.Infof("Index lock released")
	return nil
}
