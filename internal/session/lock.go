package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/logging"
)

// LockFileSuffix is appended to a session id to form its lock file name.
const LockFileSuffix = ".lock"

// -----------------------------------------------------------------------------
// In-process FIFO lock
// -----------------------------------------------------------------------------

// keyedMutex serializes critical sections per key. Waiters for the same key
// are admitted in the order they called lock.
type keyedMutex struct {
	mu    sync.Mutex
	tails map[string]*ticket
}

type ticket struct {
	done chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{tails: make(map[string]*ticket)}
}

// lock blocks until every earlier holder of key has released it. If ctx ends
// first, the ticket keeps its place in the queue and is released as soon as
// its predecessor finishes, so later waiters are never stranded.
func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	t := &ticket{done: make(chan struct{})}

	k.mu.Lock()
	prev := k.tails[key]
	k.tails[key] = t
	k.mu.Unlock()

	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			go func() {
				<-prev.done
				k.release(key, t)
			}()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(func() { k.release(key, t) }) }, nil
}

func (k *keyedMutex) release(key string, t *ticket) {
	k.mu.Lock()
	if k.tails[key] == t {
		delete(k.tails, key)
	}
	k.mu.Unlock()
	close(t.done)
}

// -----------------------------------------------------------------------------
// Cross-process lock file
// -----------------------------------------------------------------------------

// heldLocks maps lock paths to the holder id of the lock this process owns.
// It distinguishes a live lock of another Store in this process from a lock
// file left behind by this PID.
var heldLocks sync.Map

// LockInfo is the content of a session lock file.
type LockInfo struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	PID        int       `json:"pid" yaml:"pid"`
	Hostname   string    `json:"hostname" yaml:"hostname"`
	HolderID   string    `json:"holder_id" yaml:"holder_id"`
	AcquiredAt time.Time `json:"acquired_at" yaml:"acquired_at"`
}

// fileLock is an acquired lock file.
type fileLock struct {
	info LockInfo
	path string
}

// acquireFileLock creates path exclusively. A lock held by a live holder
// yields ErrConflict; a stale lock is removed and acquisition retried once.
func acquireFileLock(path, sessionID string, logger *logging.Logger) (*fileLock, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	lock := &fileLock{
		info: LockInfo{
			SessionID:  sessionID,
			PID:        os.Getpid(),
			Hostname:   hostname,
			HolderID:   generateHolderID(),
			AcquiredAt: time.Now(),
		},
		path: path,
	}
	data, err := json.Marshal(lock.info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(path)
				return nil, errors.NewStorageError("write lock file", path, werr)
			}
			heldLocks.Store(path, lock.info.HolderID)
			return lock, nil
		}
		if !os.IsExist(err) {
			return nil, errors.NewStorageError("create lock file", path, err)
		}

		existing, readErr := ReadLock(path)
		if readErr == nil && isLockLive(path, existing) {
			return nil, fmt.Errorf("%w: locked by PID %d on %s", errors.ErrConflict, existing.PID, existing.Hostname)
		}
		if readErr != nil && !os.IsNotExist(readErr) && lockIsFresh(path) {
			// Holder is between create and write.
			return nil, fmt.Errorf("%w: lock file is being written", errors.ErrConflict)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.NewStorageError("remove stale lock", path, err)
		}
		if readErr == nil {
			logger.Warn("stale lock cleaned", "session_id", sessionID, "old_pid", existing.PID)
		}
	}
	return nil, fmt.Errorf("%w: lock contention on %s", errors.ErrConflict, path)
}

// release removes the lock file if this holder still owns it. Safe to call
// multiple times.
func (l *fileLock) release() error {
	if l == nil {
		return nil
	}
	heldLocks.CompareAndDelete(l.path, l.info.HolderID)

	existing, err := ReadLock(l.path)
	if err != nil || existing.HolderID != l.info.HolderID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadLock reads and parses a lock file.
func ReadLock(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	return &info, nil
}

// IsLocked reports whether the lock file at path is held by a live holder.
func IsLocked(path string) (*LockInfo, bool) {
	info, err := ReadLock(path)
	if err != nil {
		return nil, false
	}
	return info, isLockLive(path, info)
}

func isLockLive(path string, info *LockInfo) bool {
	if info.PID == os.Getpid() {
		holder, ok := heldLocks.Load(path)
		return ok && holder == info.HolderID
	}
	return isProcessAlive(info.PID)
}

// lockIsFresh reports whether an unreadable lock file was created moments ago.
func lockIsFresh(path string) bool {
	st, err := os.Stat(path)
	return err == nil && time.Since(st.ModTime()) < time.Second
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// On Unix, sending signal 0 checks if process exists without affecting it
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

// generateHolderID generates a unique identifier for lock holders.
func generateHolderID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
