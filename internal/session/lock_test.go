package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/logging"
)

// waitQueued blocks until a ticket other than prev is the tail for key.
func waitQueued(t *testing.T, k *keyedMutex, key string, prev *ticket) *ticket {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		k.mu.Lock()
		tail := k.tails[key]
		k.mu.Unlock()
		if tail != nil && tail != prev {
			return tail
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("waiter never queued")
	return nil
}

func TestKeyedMutex_FIFO(t *testing.T) {
	k := newKeyedMutex()
	ctx := context.Background()

	unlock, err := k.lock(ctx, "s")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	k.mu.Lock()
	tail := k.tails["s"]
	k.mu.Unlock()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release, err := k.lock(ctx, "s")
			if err != nil {
				t.Errorf("lock %d: %v", i, err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}(i)
		tail = waitQueued(t, k, "s", tail)
	}

	unlock()
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
	if len(k.tails) != 0 {
		t.Errorf("tails not cleaned up: %d left", len(k.tails))
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.lock(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := k.lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on another key blocked")
	}
}

func TestKeyedMutex_CancelledWaiterKeepsQueueMoving(t *testing.T) {
	k := newKeyedMutex()

	unlock, err := k.lock(context.Background(), "s")
	if err != nil {
		t.Fatal(err)
	}
	k.mu.Lock()
	first := k.tails["s"]
	k.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := k.lock(ctx, "s")
		errCh <- err
	}()
	cancelled := waitQueued(t, k, "s", first)

	acquired := make(chan struct{})
	go func() {
		release, err := k.lock(context.Background(), "s")
		if err == nil {
			release()
		}
		close(acquired)
	}()
	waitQueued(t, k, "s", cancelled)

	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Fatalf("cancelled waiter error = %v, want context.Canceled", err)
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter behind a cancelled one was never admitted")
	}
}

func writeLockFile(t *testing.T, path string, info LockInfo) {
	t.Helper()
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s"+LockFileSuffix)

	lock, err := acquireFileLock(path, "s", logging.NopLogger())
	if err != nil {
		t.Fatalf("acquireFileLock: %v", err)
	}
	info, locked := IsLocked(path)
	if !locked || info.PID != os.Getpid() {
		t.Fatalf("IsLocked = %v, %+v", locked, info)
	}

	if _, err := acquireFileLock(path, "s", logging.NopLogger()); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("second acquire error = %v, want ErrConflict", err)
	}

	if err := lock.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := lock.release(); err != nil {
		t.Errorf("second release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file should be removed")
	}
}

func TestAcquireFileLock_LiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s"+LockFileSuffix)
	writeLockFile(t, path, LockInfo{SessionID: "s", PID: os.Getppid(), HolderID: "other"})

	_, err := acquireFileLock(path, "s", logging.NopLogger())
	if !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestAcquireFileLock_StaleLocks(t *testing.T) {
	tests := []struct {
		name string
		info LockInfo
	}{
		{"dead process", LockInfo{SessionID: "s", PID: 999999999, HolderID: "gone"}},
		{"own pid without holder", LockInfo{SessionID: "s", PID: os.Getpid(), HolderID: "leftover"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s"+LockFileSuffix)
			writeLockFile(t, path, tt.info)

			lock, err := acquireFileLock(path, "s", logging.NopLogger())
			if err != nil {
				t.Fatalf("stale lock not reclaimed: %v", err)
			}
			defer lock.release()

			info, err := ReadLock(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.HolderID != lock.info.HolderID {
				t.Error("lock file not rewritten by new holder")
			}
		})
	}
}

func TestIsProcessAlive(t *testing.T) {
	if !isProcessAlive(os.Getpid()) {
		t.Error("own process should be alive")
	}
	if isProcessAlive(0) || isProcessAlive(-1) {
		t.Error("non-positive PIDs are never alive")
	}
}
