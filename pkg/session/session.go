// Package session binds an annotation [store.Store] to one named document
// in a [docstore.Store].
//
// # Overview
//
// A [Session] is the unit of work for the CLI and the HTTP server: it loads
// the document, exposes the Store for mutation, and writes the document back
// on [Session.Save].
//
//	docs, _ := docstore.Open(ctx, docstore.Config{Backend: docstore.BackendFile})
//	sess, err := session.Open(ctx, docs, "checkout-flow")
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	sess.Store.CreateAnnotation([]string{"build", "test"}, annotation.PatternCICD, "testing", "")
//	saved, err := sess.Save(ctx)
//
// A missing document starts an empty Store. A document that cannot be
// decoded at all fails Open; individually invalid records are dropped and
// counted in [Session.Report].
//
// Save skips the write when the serialized document is byte-identical to
// the last one read or written.
package session

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/store"
)

// Session is an open document.
type Session struct {
	// Store holds the document state. It is safe for concurrent use.
	Store *store.Store

	name   string
	docs   docstore.Store
	logger *log.Logger
	report store.Report

	mu          sync.Mutex
	lastHash    string
	changes     int
	unsubscribe func()
}

// Option configures Open.
type Option func(*options)

type options struct {
	prefs  store.Preferences
	logger *log.Logger
}

// WithPreferences sets the preferences used when the document is missing
// or lacks preference keys.
func WithPreferences(p store.Preferences) Option {
	return func(o *options) { o.prefs = p }
}

// WithLogger sets the logger shared by the session and its Store.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open loads the document name from docs.
func Open(ctx context.Context, docs docstore.Store, name string, opts ...Option) (*Session, error) {
	if err := docstore.ValidateKey(name); err != nil {
		return nil, err
	}
	o := options{
		prefs:  store.DefaultPreferences(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		Store:  store.New(store.WithPreferences(o.prefs), store.WithLogger(o.logger)),
		name:   name,
		docs:   docs,
		logger: o.logger,
	}

	data, ok, err := docs.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		report, err := s.Store.LoadAnnotations(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedData, err, "load document %q", name)
		}
		s.report = report
		s.lastHash = docstore.Hash(data)
		o.logger.Debug("opened document", "name", name, "annotations", report.Loaded, "discarded", report.Discarded)
	} else {
		o.logger.Debug("new document", "name", name)
	}

	s.unsubscribe = s.Store.Subscribe(s.observe)
	return s, nil
}

func (s *Session) observe(st store.State) {
	s.mu.Lock()
	s.changes++
	s.mu.Unlock()
	s.logger.Debug("state changed", "doc", s.name, "annotations", len(st.Annotations),
		"selected", len(st.Selection.SelectedNodeIDs))
}

// Name returns the document name.
func (s *Session) Name() string { return s.name }

// Report returns the outcome of loading the document. It is zero for a new
// document.
func (s *Session) Report() store.Report { return s.report }

// Changes returns the number of notifications since Open.
func (s *Session) Changes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes
}

// Save writes the document back. It reports false when the content is
// unchanged and nothing was written.
func (s *Session) Save(ctx context.Context) (bool, error) {
	data, err := s.Store.ExportAnnotations()
	if err != nil {
		return false, err
	}
	hash := docstore.Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == s.lastHash {
		return false, nil
	}
	if err := s.docs.Put(ctx, s.name, data); err != nil {
		return false, err
	}
	s.lastHash = hash
	s.logger.Debug("saved document", "name", s.name, "bytes", len(data))
	return true, nil
}

// Close stops change tracking. It does not save and does not close the
// underlying docstore.
func (s *Session) Close() {
	s.unsubscribe()
}
