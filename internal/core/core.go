package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"refan/internal/clock"
	"refan/internal/gitutil"
	"refan/internal/report"
	"refan/internal/session"
	"refan/internal/state"
	"refan/pkg/migrate"
)

// Options configures a batch run.
type Options struct {
	DryRun       bool      // compute and report without writing
	RequireClean bool      // refuse targets with uncommitted git changes
	Journal      Store     // nil disables journaling
	Logger       *zap.Logger
	Clock        clock.Clock
	Out          io.Writer
}

func (o *Options) fill() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// Run is the batch entry point: one independent session per target path.
// Per-file failures are isolated; the exit code is 0 only when every session
// completed without a fatal extraction or I/O error.
func Run(m *migrate.Migration, paths []string, opts Options) int {
	opts.fill()
	if len(paths) == 0 {
		paths = m.Targets
	}
	if len(paths) == 0 {
		fmt.Fprintln(opts.Out, "no target files: pass paths or set targets in the migration")
		return 1
	}

	opts.Logger.Info("starting migration",
		zap.String("migration", m.Name),
		zap.Int("targets", len(paths)),
		zap.Bool("dry_run", opts.DryRun))

	failed := 0
	for _, path := range paths {
		if err := runOne(m, path, opts); err != nil {
			failed++
			fmt.Fprintf(opts.Out, "%s: %v\n", path, err)
		}
	}

	fmt.Fprintf(opts.Out, "%d file(s) processed, %d failed\n", len(paths), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runOne(m *migrate.Migration, path string, opts Options) error {
	if opts.RequireClean {
		clean, err := gitutil.IsClean(context.Background(), path)
		if err != nil {
			return fmt.Errorf("clean check failed: %w", err)
		}
		if !clean {
			return fmt.Errorf("has uncommitted changes, refusing to rewrite")
		}
	}

	sess, err := session.New(path, m,
		session.WithLogger(opts.Logger),
		session.WithClock(opts.Clock))
	if err != nil {
		return err
	}

	rep, runErr := sess.Run()
	rep.Render(opts.Out)
	if runErr != nil {
		// buffer unreliable; original file stays untouched
		return runErr
	}

	if opts.DryRun {
		if diff := sess.Diff(); diff != "" {
			fmt.Fprint(opts.Out, diff)
		}
		return nil
	}

	if sess.Changed() {
		if err := sess.Write(); err != nil {
			return err
		}
	}

	if opts.Journal != nil {
		if err := Append(opts.Journal, record(m, sess, rep, opts)); err != nil {
			opts.Logger.Warn("journal update failed", zap.String("file", path), zap.Error(err))
		}
	}
	return nil
}

func record(m *migrate.Migration, sess *session.PatchSession, rep *report.Report, opts Options) state.Record {
	var appliedRules []string
	for _, res := range rep.Results {
		if res.Outcome == report.OutcomeApplied {
			appliedRules = append(appliedRules, res.Rule)
		}
	}
	return state.Record{
		Path:      sess.Path,
		Checksum:  state.Checksum(sess.Bytes()),
		Migration: m.Hash(),
		Applied:   appliedRules,
		Skipped:   rep.Skipped(),
		DryRun:    opts.DryRun,
		Timestamp: opts.Clock.Now(),
	}
}
