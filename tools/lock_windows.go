//go:build windows

package tools

import "syscall"

// isProcessRunning reports whether a handle to pid can be opened.
// OpenProcess fails for PIDs that no longer exist.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	const access = syscall.STANDARD_RIGHTS_READ | syscall.PROCESS_QUERY_INFORMATION | syscall.SYNCHRONIZE

	h, err := syscall.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return false
	}
	syscall.CloseHandle(h)
	return true
}
