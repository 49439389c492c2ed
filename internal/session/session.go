// Package session drives one file through the full ordered rule set. A
// PatchSession owns its buffer exclusively; no state survives past
// serialization, so running the same rules against N files is N independent
// sessions.
package session

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"refan/internal/buffer"
	"refan/internal/clock"
	"refan/internal/diffutil"
	"refan/internal/report"
	"refan/internal/rules"
	"refan/pkg/migrate"
)

// PatchSession processes exactly one file through the migration's rules.
type PatchSession struct {
	Path string

	buf   *buffer.Buffer
	orig  []byte
	rules []rules.Rule
	log   *zap.Logger
	clk   clock.Clock
	mode  fs.FileMode
}

// Option configures a session.
type Option func(*PatchSession)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *PatchSession) { s.log = l }
}

// WithClock injects the clock used for report durations.
func WithClock(c clock.Clock) Option {
	return func(s *PatchSession) { s.clk = c }
}

// New loads path into a fresh session for the given migration.
func New(path string, m *migrate.Migration, opts ...Option) (*PatchSession, error) {
	buf, err := buffer.Load(path)
	if err != nil {
		return nil, err
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return newSession(path, buf, mode, m, opts...)
}

// NewFromBytes builds a session over in-memory content. Write is not
// meaningful for such a session; it exists for tests and the dry-run TUI.
func NewFromBytes(name string, content []byte, m *migrate.Migration, opts ...Option) (*PatchSession, error) {
	return newSession(name, buffer.FromBytes(content), 0644, m, opts...)
}

func newSession(path string, buf *buffer.Buffer, mode fs.FileMode, m *migrate.Migration, opts ...Option) (*PatchSession, error) {
	compiled, err := rules.Compile(m)
	if err != nil {
		return nil, err
	}
	s := &PatchSession{
		Path:  path,
		buf:   buf,
		orig:  buf.Bytes(),
		rules: compiled,
		log:   zap.NewNop(),
		clk:   clock.RealClock{},
		mode:  mode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes the rules in declared order and returns the session report.
// A non-nil error means the session aborted (unbalanced region); the buffer
// is unreliable and must not be written.
func (s *PatchSession) Run() (*report.Report, error) {
	start := s.clk.Now()
	rep := &report.Report{Path: s.Path}
	var fatal error
	for _, r := range s.rules {
		results, err := r.Apply(s.buf)
		rep.Results = append(rep.Results, results...)
		for _, res := range results {
			s.log.Debug("rule outcome",
				zap.String("file", s.Path),
				zap.String("rule", res.Rule),
				zap.String("outcome", string(res.Outcome)),
				zap.Int("line", res.Line))
		}
		if err != nil {
			fatal = fmt.Errorf("rule %s: %w", r.Name(), err)
			rep.Err = fatal.Error()
			s.log.Error("session aborted",
				zap.String("file", s.Path),
				zap.String("rule", r.Name()),
				zap.Error(err))
			break
		}
	}
	rep.Duration = s.clk.Now().Sub(start)
	return rep, fatal
}

// Changed reports whether the buffer differs from the loaded content.
func (s *PatchSession) Changed() bool {
	return !bytes.Equal(s.orig, s.buf.Bytes())
}

// Bytes returns the current buffer serialization.
func (s *PatchSession) Bytes() []byte {
	return s.buf.Bytes()
}

// Diff returns a unified-style diff of the original content against the
// mutated buffer; empty when nothing changed.
func (s *PatchSession) Diff() string {
	return diffutil.Unified(string(s.orig), string(s.buf.Bytes()))
}

// Write persists the buffer with an atomic replace: the content goes to a
// temporary file in the same directory, which is then renamed over the
// target. An abort at any point leaves the original file intact.
func (s *PatchSession) Write() error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".refan-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(s.buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, s.mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}
	return nil
}
