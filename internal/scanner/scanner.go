// Package scanner implements the Scanner (C6): it orchestrates the
// traverser (C5) and the resolved detector set (C2/C3) across a bounded
// worker pool, consults the result cache (C7), and produces a ScanResult,
// grounded on internal/executor/wave.go's bounded-parallelism shape —
// generalized here from a fixed task list to a file stream, and from a
// hand-rolled semaphore channel to golang.org/x/sync/errgroup's bounded
// group, which the wider pack already depends on.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/d-oit/code-guardian/internal/cache"
	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/detector"
	"github.com/d-oit/code-guardian/internal/fingerprint"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/registry"
	"github.com/d-oit/code-guardian/internal/result"
	"github.com/d-oit/code-guardian/internal/traverse"
)

// Scanner resolves a ScanConfig into a concrete run: its detector set is
// fixed at construction and shared read-only across every worker, per
// §3's Detector lifecycle.
type Scanner struct {
	cfg               *config.ScanConfig
	detectors         []detector.Detector
	detectorSetFP     string
	cache             *cache.Cache
	knownFingerprints map[string]string // path -> content fingerprint, for incremental mode
	onFileDone        func(path string) // optional progress callback, set via SetProgress

	lastFileFingerprints map[string]string // populated by the most recent run, for the caller's incremental index
}

// SetProgress installs fn to be called once per completed file, in both
// Scan and ScanStreaming, for a caller-owned progress indicator (e.g. a
// logger.ProgressBar). fn may be called concurrently from worker
// goroutines and must be safe for that.
func (s *Scanner) SetProgress(fn func(path string)) {
	s.onFileDone = fn
}

// New resolves cfg's detectors via reg and constructs a Scanner.
// knownFingerprints may be nil; it is only consulted when cfg.Incremental
// is true.
func New(cfg *config.ScanConfig, reg *registry.Registry, knownFingerprints map[string]string) (*Scanner, error) {
	detectors, err := reg.DetectorsFor(cfg)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		cfg:               cfg,
		detectors:         detectors,
		detectorSetFP:     fingerprint.DetectorSet(detectors),
		cache:             cache.New(cfg.CacheSize),
		knownFingerprints: knownFingerprints,
	}, nil
}

// Scan runs a full, non-streaming scan and returns the aggregate
// ScanResult, sorted in the canonical Match order.
func (s *Scanner) Scan(ctx context.Context) (*result.ScanResult, error) {
	return s.run(ctx, NopSink{})
}

// ScanStreaming runs a scan, additionally pushing each Match to sink as
// soon as its file completes. The returned ScanResult is identical to
// what Scan would produce.
func (s *Scanner) ScanStreaming(ctx context.Context, sink Sink) (*result.ScanResult, error) {
	return s.run(ctx, sink)
}

type fileOutcome struct {
	path      string
	matches   []match.Match
	bytes     int64
	lines     int64
	cacheHit  bool
	contentFP string
}

// LastFileFingerprints returns the (path -> content fingerprint) map built
// during the most recent Scan/ScanStreaming call, for the caller to persist
// via store.Store.UpdateFingerprints ahead of the next incremental run.
func (s *Scanner) LastFileFingerprints() map[string]string {
	return s.lastFileFingerprints
}

func (s *Scanner) run(ctx context.Context, sink Sink) (*result.ScanResult, error) {
	start := time.Now()

	if s.cfg.ScanDeadlineMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.ScanDeadlineMS)*time.Millisecond)
		defer cancel()
	}

	var walkOpts traverse.Options
	walkOpts.Root = s.cfg.Root
	walkOpts.IncludeExtensions = s.cfg.IncludeExtensions
	walkOpts.ExcludeGlobs = s.cfg.ExcludePaths
	walkOpts.MaxFileSize = s.cfg.MaxFileSize
	if s.cfg.Incremental {
		walkOpts.Incremental = true
		walkOpts.KnownFingerprints = s.knownFingerprints
	}

	entries, diagnostics, err := traverse.Walk(walkOpts)
	if err != nil {
		return nil, err
	}

	var m result.Metrics
	for _, d := range diagnostics {
		switch d.Kind {
		case traverse.DiagPermission:
			m.FilesSkippedPermission++
		case traverse.DiagTooLarge:
			m.FilesSkippedTooLarge++
		}
	}

	var mu sync.Mutex
	var outcomes []fileOutcome

	g, gctx := errgroup.WithContext(ctx)
	threads := s.cfg.MaxThreads
	if threads < 1 {
		threads = 1
	}
	g.SetLimit(threads)

	for _, e := range entries {
		e := e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			outcome, skip, err := s.processFile(gctx, e)
			if err != nil {
				sink.OnError(e.Path, err)
				return nil // per-file failures are diagnostics, not fatal (§4.6)
			}
			if skip != "" {
				mu.Lock()
				switch skip {
				case "encoding":
					m.FilesSkippedEncoding++
				}
				mu.Unlock()
				return nil
			}

			for _, mt := range outcome.matches {
				sink.OnMatch(mt)
			}
			sink.OnFileDone(e.Path)
			if s.onFileDone != nil {
				s.onFileDone(e.Path)
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		sink.OnDone()
		if cgerrors.IsDeadline(waitErr) || ctx.Err() == context.DeadlineExceeded {
			return nil, cgerrors.Deadline
		}
		return nil, cgerrors.Cancelled
	}

	var all []match.Match
	fps := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		all = append(all, o.matches...)
		m.FilesScanned++
		m.BytesProcessed += o.bytes
		m.LinesProcessed += o.lines
		if o.cacheHit {
			m.CacheHits++
		} else {
			m.CacheMisses++
		}
		fps[o.path] = o.contentFP
	}
	s.lastFileFingerprints = fps
	all = match.Sorted(all)

	for _, mt := range all {
		switch mt.Severity {
		case match.SeverityCritical:
			m.MatchesCritical++
		case match.SeverityHigh:
			m.MatchesHigh++
		case match.SeverityMedium:
			m.MatchesMedium++
		case match.SeverityLow:
			m.MatchesLow++
		case match.SeverityInfo:
			m.MatchesInfo++
		}
	}
	m.MatchesTotal = int64(len(all))
	m.ScanDurationMS = time.Since(start).Milliseconds()

	sink.OnDone()

	return &result.ScanResult{
		Timestamp: start,
		Root:      s.cfg.Root,
		Matches:   all,
		Metrics:   m,
	}, nil
}

// processFile reads and scans a single file. The returned skip reason
// ("encoding" or "") distinguishes a soft skip from a hard error; hard
// errors are per-file diagnostics the caller reports via sink.OnError but
// never abort the scan, per §4.6's failure policy.
func (s *Scanner) processFile(ctx context.Context, e traverse.Entry) (fileOutcome, string, error) {
	fileCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.PerFileTimeoutMS > 0 {
		fileCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.PerFileTimeoutMS)*time.Millisecond)
		defer cancel()
	}

	abs := filepath.Join(s.cfg.Root, e.Path)
	content, err := os.ReadFile(abs)
	if err != nil {
		return fileOutcome{}, "", cgerrors.ReadFailed(abs, err)
	}

	select {
	case <-fileCtx.Done():
		return fileOutcome{}, "", fileCtx.Err()
	default:
	}

	if !detector.ValidUTF8(content) {
		return fileOutcome{}, "encoding", nil
	}

	lines := int64(1)
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}

	contentFP := fingerprint.Content(content)
	key := cache.Key{Path: e.Path, ContentFingerprint: contentFP, DetectorSetFingerprint: s.detectorSetFP}

	if cached, ok := s.cache.Get(key); ok {
		return fileOutcome{path: e.Path, matches: cached, bytes: int64(len(content)), lines: lines, cacheHit: true, contentFP: contentFP}, "", nil
	}

	var matches []match.Match
	for _, d := range s.detectors {
		ms, err := d.Detect(e.Path, content)
		if err != nil {
			// A single detector's runtime error is skipped: that detector's
			// matches for this file are dropped and the error is not
			// recorded anywhere; it never aborts the file or changes
			// --fail-on-* behavior.
			continue
		}
		matches = append(matches, ms...)
	}
	matches = dedupeByKey(match.Sorted(matches))
	s.cache.Insert(key, matches)

	return fileOutcome{path: e.Path, matches: matches, bytes: int64(len(content)), lines: lines, contentFP: contentFP}, "", nil
}

// dedupeByKey collapses Matches sharing (file, line, column, pattern),
// keeping the first occurrence — the same detector-registry tie-break of
// §4.3, applied again here because two different detectors (e.g. a
// built-in and an overlapping custom pattern) may legitimately produce an
// identical key for the same file.
func dedupeByKey(ms []match.Match) []match.Match {
	seen := make(map[match.Key]bool, len(ms))
	out := make([]match.Match, 0, len(ms))
	for _, m := range ms {
		k := m.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}
