package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/logging"
)

// RecordSuffix is the file extension of a persisted session record.
const RecordSuffix = ".json"

// Store persists one JSON record per session under a directory and performs
// race-free read-modify-write updates on it.
//
// Every update for an id runs inside a critical section made of an
// in-process FIFO lock and a cross-process lock file. Records are written to
// a temporary file, synced and renamed into place, so readers never see a
// partially written record.
type Store struct {
	dir    string
	keys   *keyedMutex
	clock  Clock
	logger *logging.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreClock sets the clock used to stamp LastActivityAt.
func WithStoreClock(c Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewStorageError("create store directory", dir, err)
	}
	s := &Store{
		dir:    dir,
		keys:   newKeyedMutex(),
		clock:  SystemClock,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding the session records.
func (s *Store) Dir() string {
	return s.dir
}

// RecordPath returns the path of the record for id.
func (s *Store) RecordPath(id string) string {
	return filepath.Join(s.dir, id+RecordSuffix)
}

// LockPath returns the path of the lock file for id.
func (s *Store) LockPath(id string) string {
	return filepath.Join(s.dir, id+LockFileSuffix)
}

// Read returns the current persisted session.
func (s *Store) Read(ctx context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.readFile(id)
}

// Create persists a new session. It fails with ErrAlreadyExists when a
// record with the same id is present.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}
	unlock, err := s.keys.lock(ctx, sess.ID)
	if err != nil {
		return err
	}
	defer unlock()

	path := s.RecordPath(sess.ID)
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.NewStorageError("encode session", path, err)
	}
	if err := atomicCreateFile(path, data, 0644); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: session %s", errors.ErrAlreadyExists, sess.ID)
		}
		return errors.NewStorageError("create session", path, err)
	}
	return nil
}

// Update applies fn to a copy of the current session and persists the
// result. The revision is bumped and LastActivityAt advanced. Concurrent
// updates of one id are applied in the order they were submitted.
//
// Update fails with ErrNotFound if the record does not exist and with
// ErrConflict if another process holds the lock or changed the record while
// fn ran. An error from fn is returned unchanged and nothing is written.
func (s *Store) Update(ctx context.Context, id string, fn Mutator) (*Session, error) {
	return s.update(ctx, id, true, fn)
}

// UpdateQuiet is Update without advancing LastActivityAt.
func (s *Store) UpdateQuiet(ctx context.Context, id string, fn Mutator) (*Session, error) {
	return s.update(ctx, id, false, fn)
}

func (s *Store) update(ctx context.Context, id string, touch bool, fn Mutator) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var result *Session
	err := s.critical(ctx, id, func() error {
		current, err := s.readFile(id)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.ID = id
		next.Revision = current.Revision + 1
		if touch {
			next.LastActivityAt = s.clock.Now()
		}

		if err := s.checkRevision(id, current.Revision); err != nil {
			return err
		}
		if err := s.writeFile(next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result.Clone(), nil
}

// Delete removes the record for id. It fails with ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DeleteIf(ctx, id, func(*Session) bool { return true })
	return err
}

// DeleteIf removes the record for id when remove reports true for its
// current value, evaluated inside the critical section. A record that cannot
// be decoded is reported with ErrCorrupted and left in place.
func (s *Store) DeleteIf(ctx context.Context, id string, remove func(*Session) bool) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	deleted := false
	err := s.critical(ctx, id, func() error {
		current, err := s.readFile(id)
		if err != nil {
			return err
		}
		if !remove(current) {
			return nil
		}
		path := s.RecordPath(id)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: session %s vanished", errors.ErrConflict, id)
			}
			return errors.NewStorageError("delete session", path, err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// DeleteCorrupt removes a record that no longer decodes when its file was
// last written before cutoff. Records that decode are never touched.
func (s *Store) DeleteCorrupt(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	deleted := false
	err := s.critical(ctx, id, func() error {
		_, err := s.readFile(id)
		if err == nil || !errors.Is(err, errors.ErrCorrupted) {
			return err
		}
		path := s.RecordPath(id)
		info, err := os.Stat(path)
		if err != nil {
			return errors.NewStorageError("stat session", path, err)
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError("delete session", path, err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// List returns the ids of all persisted sessions, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("list sessions", s.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, RecordSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, RecordSuffix))
	}
	slices.Sort(ids)
	return ids, nil
}

// critical runs fn while holding both the in-process and the cross-process
// lock for id.
func (s *Store) critical(ctx context.Context, id string, fn func() error) error {
	unlock, err := s.keys.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	lock, err := acquireFileLock(s.LockPath(id), id, s.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.release(); err != nil {
			s.logger.Warn("failed to release session lock", "session_id", id, "error", err)
		}
	}()

	return fn()
}

// checkRevision verifies that the record on disk still carries revision.
func (s *Store) checkRevision(id string, revision int64) error {
	onDisk, err := s.readFile(id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return fmt.Errorf("%w: session %s was deleted during update", errors.ErrConflict, id)
		}
		return err
	}
	if onDisk.Revision != revision {
		return fmt.Errorf("%w: session %s changed from revision %d to %d",
			errors.ErrConflict, id, revision, onDisk.Revision)
	}
	return nil
}

func (s *Store) readFile(id string) (*Session, error) {
	path := s.RecordPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
		}
		return nil, errors.NewStorageError("read session", path, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.NewStorageError("decode session", path, fmt.Errorf("%w: %v", errors.ErrCorrupted, err))
	}
	if sess.ID != id {
		return nil, errors.NewStorageError("decode session", path,
			fmt.Errorf("%w: record id %q does not match file name", errors.ErrCorrupted, sess.ID))
	}
	if sess.Answers == nil {
		sess.Answers = map[int]answer.Answer{}
	}
	return &sess, nil
}

func (s *Store) writeFile(sess *Session) error {
	path := s.RecordPath(sess.ID)
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.NewStorageError("encode session", path, err)
	}
	if err := atomicWriteFile(path, data, 0644); err != nil {
		return errors.NewStorageError("write session", path, err)
	}
	return nil
}

// validateID rejects ids that could escape the store directory.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", errors.ErrNotFound, id)
	}
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temporary
// file first, then renaming. This ensures the target file is never in a
// partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpPath, err := writeTempFile(filepath.Dir(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// atomicCreateFile is atomicWriteFile for a file that must not exist yet.
// The complete temp file is hard-linked into place, so a racing creator
// fails with an error matching os.ErrExist instead of replacing the file.
func atomicCreateFile(path string, data []byte, perm os.FileMode) error {
	tmpPath, err := writeTempFile(filepath.Dir(path), data, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, path); err != nil {
		return fmt.Errorf("failed to link temp file: %w", err)
	}
	return nil
}

// writeTempFile writes data to a synced temporary file in dir and returns
// its path. The file is removed again on failure.
func writeTempFile(dir string, data []byte, perm os.FileMode) (string, error) {
	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	success = true
	return tmpPath, nil
}
