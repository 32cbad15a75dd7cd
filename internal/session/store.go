// Package session keeps loaded specifications in memory under opaque ids and
// mirrors their metadata to an index so they survive a restart.
//
// The index is best effort. Read or write failures are logged and never reach
// the caller; a session that is resident in memory keeps working even when the
// index is broken.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/render"
)

// DefaultStaleAfter is how long an untouched session survives in the index.
const DefaultStaleAfter = 7 * 24 * time.Hour

var ErrNotFound = errors.New("session not found")

// Loader loads a specification from its source.
type Loader interface {
	Load(ctx context.Context, src loader.Source) (*loader.Result, error)
}

// Session is a snapshot. The Spec is shared and must be treated as read-only.
type Session struct {
	ID           string
	Spec         *document.Spec
	Source       loader.Source
	CreatedAt    time.Time
	LastAccessed time.Time
	OutputFormat render.Format
}

func (s *Session) record() Record {
	return Record{
		ID:           s.ID,
		Source:       s.Source.Location,
		SourceType:   s.Source.Type,
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		OutputFormat: s.OutputFormat,
	}
}

type Store struct {
	// mu guards sessions and serializes index read-modify-write cycles
	// within this process. It is never held across a loader call.
	mu       sync.Mutex
	sessions map[string]*Session

	loader        Loader
	index         Index
	log           *zap.Logger
	now           func() time.Time
	staleAfter    time.Duration
	defaultFormat render.Format
}

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

func WithDefaultFormat(f render.Format) Option {
	return func(s *Store) {
		if f != "" {
			s.defaultFormat = f
		}
	}
}

// New creates a store and drops index records that have not been accessed
// within the staleness window.
func New(ctx context.Context, l Loader, index Index, opts ...Option) *Store {
	s := &Store{
		sessions:      make(map[string]*Session),
		loader:        l,
		index:         index,
		log:           zap.NewNop(),
		now:           time.Now,
		staleAfter:    DefaultStaleAfter,
		defaultFormat: render.DefaultFormat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("component", "session"))
	s.prune(ctx)
	return s
}

func (s *Store) prune(ctx context.Context) {
	records, err := s.index.Load(ctx)
	if err != nil {
		s.log.Warn("loading session index", zap.Error(err))
		return
	}
	cutoff := s.now().Add(-s.staleAfter)
	kept := slices.DeleteFunc(slices.Clone(records), func(r Record) bool {
		return r.LastAccessed.Before(cutoff)
	})
	if len(kept) == len(records) {
		return
	}
	if err := s.index.Save(ctx, kept); err != nil {
		s.log.Warn("saving pruned session index", zap.Error(err))
		return
	}
	s.log.Info("pruned stale sessions", zap.Int("removed", len(records)-len(kept)))
}

// Initialize loads src and registers it as a new session. Load failures are
// returned unchanged and leave no trace in the store.
func (s *Store) Initialize(ctx context.Context, src loader.Source, format render.Format) (*Session, error) {
	res, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = s.defaultFormat
	}

	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		Spec:         res.Spec,
		Source:       src,
		CreatedAt:    now,
		LastAccessed: now,
		OutputFormat: format,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.upsert(ctx, sess.record())

	s.log.Info("session initialized",
		zap.String("session_id", sess.ID),
		zap.String("source", src.Location),
		zap.String("version", res.Version),
		zap.Bool("dereferenced", res.Spec.Dereferenced),
	)
	for _, w := range res.Warnings {
		s.log.Warn("load warning", zap.String("session_id", sess.ID), zap.String("warning", w))
	}
	return snapshot(sess), nil
}

// Get returns the session, loading it again from its source when it is only
// known to the index. A source that can no longer be loaded purges the
// record. Every successful lookup refreshes the last-access time.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	return s.touch(ctx, id, nil)
}

// touch makes the session resident, applies fn to it and records the access.
func (s *Store) touch(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	if err := s.ensureResident(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		// removed while it was being loaded
		return nil, ErrNotFound
	}
	if fn != nil {
		fn(sess)
	}
	sess.LastAccessed = s.now()
	s.upsert(ctx, sess.record())
	return snapshot(sess), nil
}

func (s *Store) ensureResident(ctx context.Context, id string) error {
	s.mu.Lock()
	_, resident := s.sessions[id]
	var rec Record
	found := false
	if !resident {
		rec, found = s.findRecord(ctx, id)
	}
	s.mu.Unlock()

	if resident {
		return nil
	}
	if !found {
		return ErrNotFound
	}
	_, err := s.rehydrate(ctx, rec)
	return err
}

// rehydrate loads the record's source and makes the session resident. The
// load runs without mu so a slow fetch does not stall other sessions; the
// first goroutine to finish wins and the others reuse its session.
func (s *Store) rehydrate(ctx context.Context, rec Record) (*Session, error) {
	src := loader.Source{Location: rec.Source, Type: rec.SourceType}
	res, err := s.loader.Load(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[rec.ID]; ok {
		return snapshot(sess), nil
	}
	if err != nil {
		s.log.Warn("session source unavailable, dropping record",
			zap.String("session_id", rec.ID),
			zap.String("source", rec.Source),
			zap.Error(err),
		)
		s.deleteRecord(ctx, rec.ID)
		return nil, ErrNotFound
	}
	if _, ok := s.findRecord(ctx, rec.ID); !ok {
		return nil, ErrNotFound
	}

	format := rec.OutputFormat
	if format == "" {
		format = s.defaultFormat
	}
	sess := &Session{
		ID:           rec.ID,
		Spec:         res.Spec,
		Source:       src,
		CreatedAt:    rec.CreatedAt,
		LastAccessed: rec.LastAccessed,
		OutputFormat: format,
	}
	s.sessions[rec.ID] = sess
	s.log.Info("session rehydrated", zap.String("session_id", rec.ID), zap.String("source", rec.Source))
	return snapshot(sess), nil
}

// findRecord looks id up in the index. Callers hold mu.
func (s *Store) findRecord(ctx context.Context, id string) (Record, bool) {
	records, err := s.index.Load(ctx)
	if err != nil {
		s.log.Warn("loading session index", zap.String("session_id", id), zap.Error(err))
		return Record{}, false
	}
	i := slices.IndexFunc(records, func(r Record) bool { return r.ID == id })
	if i < 0 {
		return Record{}, false
	}
	return records[i], true
}

// Remove deletes the session from memory and the index. It reports whether
// the session existed in either.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, resident := s.sessions[id]
	delete(s.sessions, id)
	indexed := s.deleteRecord(ctx, id)
	if resident || indexed {
		s.log.Info("session removed", zap.String("session_id", id))
	}
	return resident || indexed
}

func (s *Store) SetOutputFormat(ctx context.Context, id string, format render.Format) error {
	_, err := s.touch(ctx, id, func(sess *Session) {
		sess.OutputFormat = format
	})
	return err
}

func (s *Store) OutputFormat(ctx context.Context, id string) (render.Format, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.OutputFormat, nil
}

// List returns every known session, resident ones first, then the rest of
// the index in index order. Index-only sessions are rehydrated; ones that
// cannot be are purged and left out.
func (s *Store) List(ctx context.Context) []*Session {
	s.mu.Lock()
	var out []*Session
	seen := make(map[string]bool)
	for _, sess := range s.sessions {
		seen[sess.ID] = true
		out = append(out, snapshot(sess))
	}
	records, err := s.index.Load(ctx)
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b *Session) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if err != nil {
		s.log.Warn("loading session index", zap.Error(err))
		return out
	}
	for _, rec := range records {
		if seen[rec.ID] {
			continue
		}
		sess, err := s.rehydrate(ctx, rec)
		if err != nil {
			continue
		}
		out = append(out, sess)
	}
	return out
}

// upsert writes one record into the index. Callers hold mu.
func (s *Store) upsert(ctx context.Context, rec Record) {
	records, err := s.index.Load(ctx)
	if err != nil {
		s.log.Warn("loading session index", zap.String("session_id", rec.ID), zap.Error(err))
		return
	}
	if i := slices.IndexFunc(records, func(r Record) bool { return r.ID == rec.ID }); i >= 0 {
		records[i] = rec
	} else {
		records = append(records, rec)
	}
	if err := s.index.Save(ctx, records); err != nil {
		s.log.Warn("saving session index", zap.String("session_id", rec.ID), zap.Error(err))
	}
}

// deleteRecord removes one record and reports whether it was present.
// Callers hold mu.
func (s *Store) deleteRecord(ctx context.Context, id string) bool {
	records, err := s.index.Load(ctx)
	if err != nil {
		s.log.Warn("loading session index", zap.String("session_id", id), zap.Error(err))
		return false
	}
	kept := slices.DeleteFunc(slices.Clone(records), func(r Record) bool { return r.ID == id })
	if len(kept) == len(records) {
		return false
	}
	if err := s.index.Save(ctx, kept); err != nil {
		s.log.Warn("saving session index", zap.String("session_id", id), zap.Error(err))
	}
	return true
}

func snapshot(sess *Session) *Session {
	cp := *sess
	return &cp
}
