//go:build windows

package storage

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	modkernel32      = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = modkernel32.NewProc("LockFileEx")
	procUnlockFileEx = modkernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock   = 0x00000002
	lockfileFailImmediately = 0x00000001

	// ERROR_LOCK_VIOLATION
	errnoLockViolation = 33
)

func lockFileEx(f *os.File, flags uintptr) error {
	var overlapped syscall.Overlapped
	r1, _, err := procLockFileEx.Call(
		uintptr(f.Fd()),
		flags,
		0,
		1,
		0,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}

// lockFileBlocking acquires an exclusive lock on the first byte of f, waiting
// for any current holder to release it.
func lockFileBlocking(f *os.File) error {
	return lockFileEx(f, lockfileExclusiveLock)
}

// tryLockFile attempts to acquire the exclusive lock without blocking.
// It returns false when another process holds the lock.
func tryLockFile(f *os.File) (bool, error) {
	err := lockFileEx(f, lockfileExclusiveLock|lockfileFailImmediately)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok && errno == errnoLockViolation {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// unlockFile releases the lock held on f.
func unlockFile(f *os.File) error {
	var overlapped syscall.Overlapped
	r1, _, err := procUnlockFileEx.Call(
		uintptr(f.Fd()),
		0,
		1,
		0,
		uintptr(unsafe.Pointer(&overlapped)),
	)
	if r1 == 0 {
		return err
	}
	return nil
}
