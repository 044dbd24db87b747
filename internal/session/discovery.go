package session

import (
	"context"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/askuser/internal/errors"
)

// Info contains summary information about a persisted session.
type Info struct {
	ID             string    `json:"id" yaml:"id"`
	Status         Status    `json:"status" yaml:"status"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
	LastActivityAt time.Time `json:"lastActivityAt" yaml:"lastActivityAt"`
	Answered       int       `json:"answered" yaml:"answered"`
	Total          int       `json:"total" yaml:"total"`
	IsLocked       bool      `json:"isLocked" yaml:"isLocked"`
	LockInfo       *LockInfo `json:"lockInfo,omitempty" yaml:"lockInfo,omitempty"`
	Path           string    `json:"path" yaml:"path"`
	// Title is the header, or failing that the prompt, of the first question.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// Error is set when the record could not be decoded.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// List returns a summary of every persisted session, oldest first. Active
// sessions past their timeout are reported as expired without being changed.
// Unreadable records are included with Error set.
func (m *Manager) List(ctx context.Context) ([]*Info, error) {
	store, ok := m.repo.(*Store)
	ids, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(ids))
	for _, id := range ids {
		info := &Info{ID: id}
		if ok {
			info.Path = store.RecordPath(id)
			info.LockInfo, info.IsLocked = IsLocked(store.LockPath(id))
		}

		sess, err := m.repo.Read(ctx, id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			info.Error = err.Error()
			infos = append(infos, info)
			continue
		}

		info.Status = sess.Status
		if sess.Status == StatusActive && m.timedOut(sess) {
			info.Status = StatusExpired
		}
		info.CreatedAt = sess.CreatedAt
		info.LastActivityAt = sess.LastActivityAt
		info.Total = len(sess.Questions)
		if len(sess.Questions) > 0 {
			info.Title = sess.Questions[0].Header
			if info.Title == "" {
				info.Title = sess.Questions[0].Prompt
			}
		}
		for _, a := range sess.Answers {
			if !a.IsEmpty() {
				info.Answered++
			}
		}
		infos = append(infos, info)
	}

	slices.SortStableFunc(infos, func(a, b *Info) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return infos, nil
}

// CleanupStaleLocks removes lock files whose holder is gone and returns the
// ids of the sessions they belonged to.
func (s *Store) CleanupStaleLocks(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("list locks", s.dir, err)
	}

	var cleaned []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return cleaned, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, LockFileSuffix) {
			continue
		}

		id := strings.TrimSuffix(name, LockFileSuffix)
		path := s.LockPath(id)
		info, locked := IsLocked(path)
		if locked || (info == nil && lockIsFresh(path)) {
			continue
		}
		if err := os.Remove(path); err != nil {
			continue // Skip errors, try other locks
		}
		if info != nil {
			s.logger.Warn("stale lock cleaned", "session_id", id, "old_pid", info.PID)
		}
		cleaned = append(cleaned, id)
	}
	return cleaned, nil
}
