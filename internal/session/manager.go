package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/logging"
)

// DefaultMaxConflictRetries is used when Options.MaxConflictRetries is zero.
const DefaultMaxConflictRetries = 3

// conflictBackoff is the base wait between conflict retries.
const conflictBackoff = 10 * time.Millisecond

// errTimedOut aborts an update whose session passed its timeout while the
// update was queued.
var errTimedOut = errors.New("session timed out")

// errUnchanged aborts an update that has nothing to do.
var errUnchanged = errors.New("session unchanged")

// Options configures a Manager.
type Options struct {
	// SessionTimeout is the idle time after which an active session expires.
	// Zero disables expiry.
	SessionTimeout time.Duration
	// RetentionPeriod is the idle time after which a record is deleted.
	RetentionPeriod time.Duration
	// SweepInterval throttles opportunistic sweeps and paces Run.
	// Zero disables both; SweepExpired can still be called directly.
	SweepInterval time.Duration

	MaxOptions           int
	MaxQuestions         int
	RecommendedQuestions int
	MaxConflictRetries   int

	Clock  Clock
	Logger *logging.Logger
	Bus    *event.Bus
}

// OptionsFromConfig maps the loaded configuration onto manager options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SessionTimeout:       cfg.Session.Timeout(),
		RetentionPeriod:      cfg.Session.Retention(),
		SweepInterval:        cfg.Session.SweepInterval(),
		MaxOptions:           cfg.Questions.MaxOptions,
		MaxQuestions:         cfg.Questions.MaxQuestions,
		RecommendedQuestions: cfg.Questions.RecommendedQuestions,
		MaxConflictRetries:   cfg.Session.MaxConflictRetries,
	}
}

// Manager owns session identity and lifecycle on top of a Repository.
type Manager struct {
	repo   Repository
	opts   Options
	clock  Clock
	logger *logging.Logger
	bus    *event.Bus
	newID  func() string

	sweeps    singleflight.Group
	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewManager creates a Manager. Unset options fall back to the defaults
// from config.Default.
func NewManager(repo Repository, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.RetentionPeriod <= 0 {
		def := config.Default()
		opts.RetentionPeriod = def.Session.Retention()
	}
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = DefaultMaxConflictRetries
	}
	return &Manager{
		repo:   repo,
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger,
		bus:    opts.Bus,
		newID:  uuid.NewString,
	}
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Create persists a new active session for questions and returns its id.
func (m *Manager) Create(ctx context.Context, questions []answer.Question) (string, error) {
	if err := m.validateQuestions(questions); err != nil {
		return "", err
	}
	m.maybeSweep(ctx)

	now := m.clock.Now()
	sess := &Session{
		ID:             m.newID(),
		CreatedAt:      now,
		LastActivityAt: now,
		Status:         StatusActive,
		Questions:      questions,
		Answers:        map[int]answer.Answer{},
	}
	sess = sess.Clone()

	if err := m.repo.Create(ctx, sess); err != nil {
		return "", errors.NewSessionError("create session", err).WithSessionID(sess.ID)
	}

	log := m.logger.WithSession(sess.ID)
	if m.opts.RecommendedQuestions > 0 && len(questions) > m.opts.RecommendedQuestions {
		log.Warn("more questions than recommended",
			"count", len(questions),
			"recommended", m.opts.RecommendedQuestions,
		)
	}
	log.Info("session created", "questions", len(questions))
	m.bus.Publish(event.NewSessionCreatedEvent(sess.ID, len(questions)))
	return sess.ID, nil
}

// Get returns the session. An active session past its timeout is moved to
// expired first; expired sessions yield ErrExpired.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.maybeSweep(ctx)

	sess, err := m.repo.Read(ctx, id)
	if err != nil {
		return nil, errors.NewSessionError("get session", err).WithSessionID(id)
	}
	if sess.Status == StatusActive && m.timedOut(sess) {
		if sess, err = m.expire(ctx, id); err != nil {
			return nil, errors.NewSessionError("expire session", err).WithSessionID(id)
		}
	}
	if sess.Status == StatusExpired {
		return nil, errors.NewSessionError("get session", errors.ErrExpired).WithSessionID(id)
	}
	return sess, nil
}

// CommitAnswer validates a against question index and persists it.
func (m *Manager) CommitAnswer(ctx context.Context, id string, index int, a answer.Answer) error {
	wrap := func(err error) error {
		return errors.NewSessionError(fmt.Sprintf("commit answer %d", index), err).WithSessionID(id)
	}

	sess, err := m.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrExpired) {
			return wrap(errors.ErrSessionClosed)
		}
		return err
	}
	if sess.Status.IsClosed() {
		return wrap(errors.ErrSessionClosed)
	}
	if err := m.validateAnswer(sess, index, a); err != nil {
		return wrap(err)
	}

	committed := a.Clone()
	_, err = m.updateWithRetry(ctx, id, "commit answer", func(s *Session) error {
		if s.Status.IsClosed() {
			return errors.ErrSessionClosed
		}
		if m.timedOut(s) {
			return errTimedOut
		}
		s.Answers[index] = committed
		advanceCursor(s, index)
		return nil
	})
	if errors.Is(err, errTimedOut) {
		if _, err := m.expire(ctx, id); err != nil {
			return wrap(err)
		}
		return wrap(errors.ErrSessionClosed)
	}
	if err != nil {
		return wrap(err)
	}

	m.logger.WithSession(id).WithQuestion(index).Debug("answer committed", "answer", committed.Summary())
	m.bus.Publish(event.NewAnswerCommittedEvent(id, index, committed))
	return nil
}

// ClearAnswer removes the persisted answer of optional question index, for
// a question the user emptied after answering it. Required questions cannot
// be cleared.
func (m *Manager) ClearAnswer(ctx context.Context, id string, index int) error {
	wrap := func(err error) error {
		return errors.NewSessionError(fmt.Sprintf("clear answer %d", index), err).WithSessionID(id)
	}

	sess, err := m.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrExpired) {
			return wrap(errors.ErrSessionClosed)
		}
		return err
	}
	if sess.Status.IsClosed() {
		return wrap(errors.ErrSessionClosed)
	}
	if index < 0 || index >= len(sess.Questions) {
		return wrap(errors.NewValidationError(fmt.Sprintf("question index must be between 0 and %d", len(sess.Questions)-1)).
			WithField("questionIndex").
			WithValue(index).
			WithCause(errors.ErrInvalidAnswer))
	}
	if sess.Questions[index].Required() {
		return wrap(errors.NewValidationError("a required question cannot be left unanswered").
			WithField("questionIndex").
			WithValue(index).
			WithCause(errors.ErrInvalidAnswer))
	}

	_, err = m.updateWithRetry(ctx, id, "clear answer", func(s *Session) error {
		if s.Status.IsClosed() {
			return errors.ErrSessionClosed
		}
		if m.timedOut(s) {
			return errTimedOut
		}
		delete(s.Answers, index)
		advanceCursor(s, index)
		return nil
	})
	if errors.Is(err, errTimedOut) {
		if _, err := m.expire(ctx, id); err != nil {
			return wrap(err)
		}
		return wrap(errors.ErrSessionClosed)
	}
	if err != nil {
		return wrap(err)
	}

	m.logger.WithSession(id).WithQuestion(index).Debug("answer cleared")
	m.bus.Publish(event.NewAnswerClearedEvent(id, index))
	return nil
}

// Complete marks the session completed. Required questions must all be
// answered, otherwise ErrIncompleteAnswers names the missing indices.
func (m *Manager) Complete(ctx context.Context, id string) error {
	wrap := func(err error) error {
		return errors.NewSessionError("complete session", err).WithSessionID(id)
	}

	if _, err := m.Get(ctx, id); err != nil {
		if errors.Is(err, errors.ErrExpired) {
			return wrap(errors.ErrSessionClosed)
		}
		return err
	}

	sess, err := m.updateWithRetry(ctx, id, "complete session", func(s *Session) error {
		if s.Status.IsClosed() {
			return errors.ErrSessionClosed
		}
		if m.timedOut(s) {
			return errTimedOut
		}
		if missing := s.Missing(); len(missing) > 0 {
			return fmt.Errorf("%w: questions %v", errors.ErrIncompleteAnswers, missing)
		}
		s.Status = StatusCompleted
		s.Cursor.ShowReview = false
		return nil
	})
	if errors.Is(err, errTimedOut) {
		if _, err := m.expire(ctx, id); err != nil {
			return wrap(err)
		}
		return wrap(errors.ErrSessionClosed)
	}
	if err != nil {
		return wrap(err)
	}

	m.logger.WithSession(id).Info("session completed", "answers", len(sess.Answers))
	m.bus.Publish(event.NewSessionCompletedEvent(id, sess.AnswerSet()))
	return nil
}

// Delete removes a session on request.
func (m *Manager) Delete(ctx context.Context, id string) error {
	err := m.withRetry(ctx, id, "delete session", func() error {
		return m.repo.Delete(ctx, id)
	})
	if err != nil {
		return errors.NewSessionError("delete session", err).WithSessionID(id)
	}
	m.logger.WithSession(id).Info("session deleted", "reason", event.DeletedByRequest)
	m.bus.Publish(event.NewSessionDeletedEvent(id, event.DeletedByRequest))
	return nil
}

// SweepExpired deletes every session idle for longer than the retention
// period and returns their ids. Concurrent calls share one sweep, and a
// cancelled caller returns early without stopping it. Undecodable records age
// out by file modification time; records locked by another process are skipped.
func (m *Manager) SweepExpired(ctx context.Context) ([]string, error) {
	sweepCtx := context.WithoutCancel(ctx)
	ch := m.sweeps.DoChan("sweep", func() (any, error) {
		m.sweepMu.Lock()
		m.lastSweep = m.clock.Now()
		m.sweepMu.Unlock()
		return m.sweep(sweepCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		ids, _ := res.Val.([]string)
		return ids, res.Err
	}
}

func (m *Manager) sweep(ctx context.Context) ([]string, error) {
	ids, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []string
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		removed, err := m.repo.DeleteIf(ctx, id, func(s *Session) bool {
			return m.clock.Now().Sub(s.LastActivityAt) > m.opts.RetentionPeriod
		})
		switch {
		case err == nil:
		case errors.Is(err, errors.ErrNotFound):
			continue
		case errors.Is(err, errors.ErrCorrupted):
			removed, err = m.repo.DeleteCorrupt(ctx, id, m.clock.Now().Add(-m.opts.RetentionPeriod))
			if err != nil {
				m.logger.WithSession(id).Warn("skipping corrupt session during sweep", "error", err)
				continue
			}
			if !removed {
				m.logger.WithSession(id).Warn("keeping corrupt session until it ages out")
			}
		case errors.Is(err, errors.ErrConflict):
			m.logger.WithSession(id).Debug("session busy, sweep will retry later", "error", err)
			continue
		default:
			errs = append(errs, err)
			continue
		}
		if !removed {
			continue
		}

		deleted = append(deleted, id)
		m.logger.WithSession(id).Info("session deleted", "reason", event.DeletedByRetention)
		m.bus.Publish(event.NewSessionDeletedEvent(id, event.DeletedByRetention))
	}

	if len(deleted) > 0 {
		m.logger.Info("retention sweep finished", "deleted", len(deleted), "scanned", len(ids))
	}
	return deleted, errors.Join(errs...)
}

// Run sweeps every SweepInterval until ctx ends.
func (m *Manager) Run(ctx context.Context) error {
	if m.opts.SweepInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("retention sweep failed", "error", err)
			}
		}
	}
}

// maybeSweep runs a sweep when the last one is older than SweepInterval.
func (m *Manager) maybeSweep(ctx context.Context) {
	if m.opts.SweepInterval <= 0 {
		return
	}
	m.sweepMu.Lock()
	due := m.lastSweep.IsZero() || m.clock.Now().Sub(m.lastSweep) >= m.opts.SweepInterval
	m.sweepMu.Unlock()
	if !due {
		return
	}
	if _, err := m.SweepExpired(ctx); err != nil {
		m.logger.Warn("opportunistic sweep failed", "error", err)
	}
}

// expire moves an active, timed-out session to expired without counting the
// transition as activity. It returns the current record either way.
func (m *Manager) expire(ctx context.Context, id string) (*Session, error) {
	var last time.Time
	sess, err := m.quietUpdateWithRetry(ctx, id, "expire session", func(s *Session) error {
		if s.Status != StatusActive || !m.timedOut(s) {
			return errUnchanged
		}
		last = s.LastActivityAt
		s.Status = StatusExpired
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return m.repo.Read(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	m.logger.WithSession(id).Info("session expired", "last_activity", last)
	m.bus.Publish(event.NewSessionExpiredEvent(id, last))
	return sess, nil
}

func (m *Manager) timedOut(s *Session) bool {
	return m.opts.SessionTimeout > 0 && m.clock.Now().Sub(s.LastActivityAt) > m.opts.SessionTimeout
}

func (m *Manager) updateWithRetry(ctx context.Context, id, op string, fn Mutator) (*Session, error) {
	var sess *Session
	err := m.withRetry(ctx, id, op, func() error {
		var err error
		sess, err = m.repo.Update(ctx, id, fn)
		return err
	})
	return sess, err
}

func (m *Manager) quietUpdateWithRetry(ctx context.Context, id, op string, fn Mutator) (*Session, error) {
	var sess *Session
	err := m.withRetry(ctx, id, op, func() error {
		var err error
		sess, err = m.repo.UpdateQuiet(ctx, id, fn)
		return err
	})
	return sess, err
}

// withRetry re-runs fn while it reports ErrConflict, up to MaxConflictRetries
// extra attempts, then surfaces the conflict as a storage failure.
func (m *Manager) withRetry(ctx context.Context, id, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= m.opts.MaxConflictRetries; attempt++ {
		if attempt > 0 {
			m.logger.WithSession(id).Debug("retrying after conflict", "op", op, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * conflictBackoff):
			}
		}
		err = fn()
		if !errors.Is(err, errors.ErrConflict) {
			return err
		}
	}
	m.logger.WithSession(id).Warn("giving up after conflicts", "op", op, "retries", m.opts.MaxConflictRetries)
	return errors.NewStorageError(op, m.repo.Dir(), err)
}

func (m *Manager) validateQuestions(questions []answer.Question) error {
	invalid := func(field string, value any, msg string) error {
		return errors.NewValidationError(msg).WithField(field).WithValue(value)
	}

	if len(questions) == 0 {
		return invalid("questions", 0, "at least one question is required")
	}
	if m.opts.MaxQuestions > 0 && len(questions) > m.opts.MaxQuestions {
		return invalid("questions", len(questions), fmt.Sprintf("at most %d questions are allowed", m.opts.MaxQuestions))
	}
	for i, q := range questions {
		field := fmt.Sprintf("questions[%d]", i)
		if q.Prompt == "" {
			return invalid(field+".prompt", "", "prompt is required")
		}
		if len(q.Options) == 0 && !q.AllowCustom {
			return invalid(field+".options", 0, "a question needs options or allowCustom")
		}
		seen := make(map[string]bool, len(q.Options))
		for j, opt := range q.Options {
			if opt.Label == "" {
				return invalid(fmt.Sprintf("%s.options[%d].label", field, j), "", "option label is required")
			}
			if seen[opt.Label] {
				return invalid(fmt.Sprintf("%s.options[%d].label", field, j), opt.Label, "option labels must be unique")
			}
			seen[opt.Label] = true
		}
	}
	return nil
}

func (m *Manager) validateAnswer(s *Session, index int, a answer.Answer) error {
	if index < 0 || index >= len(s.Questions) {
		return errors.NewValidationError(fmt.Sprintf("question index must be between 0 and %d", len(s.Questions)-1)).
			WithField("questionIndex").
			WithValue(index).
			WithCause(errors.ErrInvalidAnswer)
	}
	return answer.Validate(s.Questions[index], a, m.opts.MaxOptions)
}

// advanceCursor moves the persisted cursor past the question just answered,
// entering review once the last question is answered and nothing is missing.
func advanceCursor(s *Session, index int) {
	last := len(s.Questions) - 1
	if index < last {
		s.Cursor = Cursor{Question: index + 1}
		return
	}
	s.Cursor = Cursor{Question: last, ShowReview: len(s.Missing()) == 0}
}
