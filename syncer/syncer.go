// Package syncer runs the comparison pipeline for one or more target
// languages: validate paths, read both files, diff their keys, extract the
// missing entry blocks and write the extract for translators.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/resxsync/config"
	"github.com/minios-linux/resxsync/diff"
	"github.com/minios-linux/resxsync/i18n"
	"github.com/minios-linux/resxsync/lockfile"
	"github.com/minios-linux/resxsync/report"
	"github.com/minios-linux/resxsync/resx"
)

// ErrBlockNotFound is returned in strict mode when a missing key has no
// <data> block in the base file.
var ErrBlockNotFound = errors.New("missing key has no <data> block")

// State is the terminal state a run ended in.
type State string

const (
	// StateAborted: an input file does not exist; nothing was read or written.
	StateAborted State = "aborted"
	// StateInSync: every base key exists in the target; nothing was written.
	StateInSync State = "in_sync"
	// StateReportWritten: missing entries were extracted and written.
	StateReportWritten State = "report_written"
	// StateChecked: missing entries were found in dry-run mode.
	StateChecked State = "checked"
)

// Options configures one run.
type Options struct {
	Paths config.Paths
	// Strict turns a missing key without a block into ErrBlockNotFound.
	Strict bool
	// DryRun compares without writing the extract.
	DryRun bool
	// Lock, when set, records base block checksums and reports stale keys.
	// The caller saves it.
	Lock *lockfile.LockFile
	// Values decodes the base file to attach entry values to the result.
	Values bool
}

// Result describes the outcome of comparing one language.
type Result struct {
	Paths    config.Paths
	State    State
	BaseKeys int
	Missing  []string
	Blocks   []resx.Block
	Stale    []string
	Entries  map[string]resx.Entry
	Err      error
}

// Run compares one target language against the base file.
// A missing input file yields StateAborted together with an error wrapping
// config.ErrBaseNotFound or config.ErrTargetNotFound.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{Paths: opts.Paths}

	if err := opts.Paths.Validate(); err != nil {
		res.State = StateAborted
		res.Err = err
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	baseContent, err := resx.ReadFile(opts.Paths.Base)
	if err != nil {
		return res, err
	}
	targetContent, err := resx.ReadFile(opts.Paths.Target)
	if err != nil {
		return res, err
	}

	baseKeys := resx.Keys(baseContent)
	targetKeys := resx.KeySet(targetContent)
	res.BaseKeys = len(baseKeys)
	res.Missing = diff.Missing(baseKeys, targetKeys)

	log.Debug().
		Str("lang", opts.Paths.Lang).
		Int("base_keys", len(baseKeys)).
		Int("target_keys", len(targetKeys)).
		Int("missing", len(res.Missing)).
		Msg("Compared keys")

	if opts.Lock != nil {
		res.Stale = trackStale(opts.Lock, opts.Paths.Target, baseContent, baseKeys, targetKeys)
	}

	if len(res.Missing) == 0 {
		res.State = StateInSync
		return res, nil
	}

	res.Blocks = resx.Extract(baseContent, res.Missing)
	for _, key := range resx.NotFound(res.Blocks) {
		log.Warn().Str("lang", opts.Paths.Lang).Msg(i18n.T("No <data> block for key %q; it is not included in %s", key, opts.Paths.Output))
	}
	if opts.Values {
		entries, err := resx.Parse(baseContent)
		if err != nil {
			log.Warn().Err(err).Str("file", opts.Paths.Base).Msg("Entry values unavailable")
		} else {
			res.Entries = entries
		}
	}

	if opts.DryRun {
		res.State = StateChecked
	} else {
		if err := report.WriteDocument(opts.Paths.Output, res.Blocks); err != nil {
			return res, err
		}
		res.State = StateReportWritten
	}

	if notFound := resx.NotFound(res.Blocks); len(notFound) > 0 && opts.Strict {
		res.Err = fmt.Errorf("%s: %w: %v", opts.Paths.Base, ErrBlockNotFound, notFound)
		return res, res.Err
	}
	return res, nil
}

// trackStale reports keys whose base block changed since the lock file
// recorded it, then records blocks of translated keys seen for the first
// time and drops keys no longer in the base file.
func trackStale(lf *lockfile.LockFile, targetPath, baseContent string, baseKeys []string, targetKeys map[string]struct{}) []string {
	target := lockfile.TargetKey(targetPath)
	recorded := lf.Recorded(target)

	var stale []string
	for _, b := range resx.Extract(baseContent, translated(baseKeys, targetKeys)) {
		if !b.Found {
			continue
		}
		if _, ok := recorded[b.Key]; !ok {
			lf.Update(target, b.Key, b.Text)
			continue
		}
		if lf.IsChanged(target, b.Key, b.Text) {
			stale = append(stale, b.Key)
		}
	}

	lf.Clean(target, baseKeys)
	return stale
}

// translated returns the distinct keys of base present in target.
func translated(base []string, target map[string]struct{}) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, k := range base {
		if _, ok := target[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Accept re-records the current base blocks of every translated key for a
// target, clearing its stale entries.
func Accept(paths config.Paths, lf *lockfile.LockFile) (int, error) {
	if err := paths.Validate(); err != nil {
		return 0, err
	}
	baseContent, err := resx.ReadFile(paths.Base)
	if err != nil {
		return 0, err
	}
	targetContent, err := resx.ReadFile(paths.Target)
	if err != nil {
		return 0, err
	}

	baseKeys := resx.Keys(baseContent)
	entries := make(map[string]string)
	for _, b := range resx.Extract(baseContent, translated(baseKeys, resx.KeySet(targetContent))) {
		if b.Found {
			entries[b.Key] = b.Text
		}
	}

	target := lockfile.TargetKey(paths.Target)
	lf.RemoveTarget(target)
	lf.UpdateBatch(target, entries)
	return len(entries), nil
}

// RunAll runs every language independently, at most jobs at a time.
// Results are returned in the order of paths; a failure in one language is
// recorded in its Result.Err and does not stop the others.
func RunAll(ctx context.Context, base Options, paths []config.Paths, jobs int) []*Result {
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, p := range paths {
		opts := base
		opts.Paths = p
		g.Go(func() error {
			res, err := Run(ctx, opts)
			if err != nil {
				res.Err = err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Summary converts the result for rendering.
func (r *Result) Summary(baseLang string) *report.Summary {
	s := &report.Summary{
		Language: r.Paths.Lang,
		BaseLang: baseLang,
		Base:     r.Paths.Base,
		Target:   r.Paths.Target,
		Output:   r.Paths.Output,
		State:    string(r.State),
		InSync:   r.State == StateInSync,
		Written:  r.State == StateReportWritten,
		BaseKeys: r.BaseKeys,
		Missing:  make([]report.Missing, 0, len(r.Missing)),
		Stale:    r.Stale,
	}
	for _, b := range r.Blocks {
		m := report.Missing{Key: b.Key, Found: b.Found}
		if e, ok := r.Entries[b.Key]; ok {
			m.Value = e.Value
			m.Comment = e.Comment
		}
		s.Missing = append(s.Missing, m)
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
		var nf *config.FileNotFoundError
		if errors.As(r.Err, &nf) {
			s.NotFound = nf.Path
		}
	}
	return s
}
