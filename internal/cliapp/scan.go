package cliapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/fingerprint"
	"github.com/d-oit/code-guardian/internal/format"
	"github.com/d-oit/code-guardian/internal/logger"
	"github.com/d-oit/code-guardian/internal/metrics"
	"github.com/d-oit/code-guardian/internal/profile"
	"github.com/d-oit/code-guardian/internal/registry"
	"github.com/d-oit/code-guardian/internal/result"
	"github.com/d-oit/code-guardian/internal/scanner"
	"github.com/d-oit/code-guardian/internal/store"
)

// Exit codes per §6.
const (
	exitSuccess      = 0
	exitThreshold    = 1
	exitConfigOrIO   = 2
	exitCancellation = 130
)

func newScanCommand() *cobra.Command {
	var (
		profileName     string
		configPath      string
		customDetectors string
		outputFormat    string
		outputPath      string
		incremental     bool
		streaming       bool
		maxThreads      int
		maxFileSize     int64
		failOnCritical  bool
		failOnHigh      bool
		metricsAddr     string
		logDir          string
		noProgress      bool
	)

	cmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a source tree for detector matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			cfg, err := resolveScanConfig(root, profileName, configPath, customDetectors, incremental, streaming, maxThreads, maxFileSize)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			f, err := format.Parse(outputFormat)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			if cfg.Streaming && (f == format.Markdown || f == format.HTML) {
				return exitWith(exitConfigOrIO, cgerrors.InvalidConfigValue("format",
					"markdown and html must buffer the full result and cannot be combined with --streaming"))
			}

			st, err := store.Open(cmd.Context(), cfg.DatabasePath)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			defer st.Close()

			reg, err := registry.New()
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			resolved, err := reg.DetectorsFor(cfg)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			cfgFP := fingerprint.DetectorSet(resolved)

			var knownFP map[string]string
			if cfg.Incremental {
				knownFP, err = st.FingerprintIndex(cmd.Context(), cfgFP)
				if err != nil {
					return exitWith(exitConfigOrIO, err)
				}
			}

			sc, err := scanner.New(cfg, reg, knownFP)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			runID := uuid.NewString()

			var fileLog *logger.FileLogger
			logWriter := io.Writer(os.Stderr)
			if logDir != "" {
				fileLog, err = logger.NewFileLogger(logDir)
				if err != nil {
					return exitWith(exitConfigOrIO, err)
				}
				defer fileLog.Close()
				logWriter = io.MultiWriter(os.Stderr, fileLog)
			}

			log := logger.NewConsoleLogger(logWriter, "info")
			log.LogScanStart(runID, cfg.Root, len(cfg.EnabledDetectors), profileName)
			if fileLog != nil {
				log.LogInfo(fmt.Sprintf("mirroring run log to %s", fileLog.Path()))
			}

			var pb *logger.ProgressBar
			if !noProgress && isatty.IsTerminal(os.Stderr.Fd()) {
				pb = logger.NewProgressBar(-1, os.Stderr, "scanning")
				sc.SetProgress(func(string) { pb.Add(1) })
			}

			var recorder *metrics.Recorder
			if metricsAddr != "" {
				recorder = metrics.NewRecorder()
				mux := http.NewServeMux()
				mux.Handle("/metrics", recorder.Handler())
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Errorf("metrics server: %v", err)
					}
				}()
				log.Infof("serving metrics on http://%s/metrics", metricsAddr)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer shutdownCancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out, closeOut, err := openOutput(outputPath)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			defer closeOut()

			var res *result.ScanResult
			if cfg.Streaming {
				res, err = sc.ScanStreaming(ctx, newStreamingSink(out, f))
			} else {
				res, err = sc.Scan(ctx)
			}
			if pb != nil {
				pb.Finish()
			}
			if err != nil {
				if cgerrors.IsCancelled(err) {
					return exitWith(exitCancellation, err)
				}
				return exitWith(exitConfigOrIO, err)
			}

			log.LogScanComplete(res.Metrics.FilesScanned, res.Metrics.MatchesTotal, res.Metrics.ScanDurationMS)
			log.LogCacheStats(res.Metrics.CacheHits, res.Metrics.CacheMisses)

			if recorder != nil {
				recorder.Observe(res.Metrics)
			}

			id, err := st.StoreScan(ctx, *res)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			res.ID = id

			if cfg.Incremental {
				fps := sc.LastFileFingerprints()
				entries := make([]store.FingerprintEntry, 0, len(fps))
				for path, fp := range fps {
					entries = append(entries, store.FingerprintEntry{Path: path, ContentFingerprint: fp})
				}
				if err := st.UpdateFingerprints(ctx, cfgFP, entries); err != nil {
					return exitWith(exitConfigOrIO, err)
				}
			}

			if !cfg.Streaming {
				if err := format.WriteResult(out, *res, f, isatty.IsTerminal(out.Fd())); err != nil {
					return exitWith(exitConfigOrIO, err)
				}
			}

			sum := res.Summary()
			if failOnCritical && sum.Critical > 0 {
				return exitWith(exitThreshold, fmt.Errorf("%d critical matches found", sum.Critical))
			}
			if failOnHigh && (sum.Critical > 0 || sum.High > 0) {
				return exitWith(exitThreshold, fmt.Errorf("%d high-or-above matches found", sum.Critical+sum.High))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "named detector profile, e.g. security, quality")
	cmd.Flags().StringVar(&configPath, "config", "", "scan configuration document (TOML/JSON/YAML)")
	cmd.Flags().StringVar(&customDetectors, "custom-detectors", "", "custom detector document (TOML/JSON/YAML)")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "output format: text|json|csv|markdown|html")
	cmd.Flags().StringVar(&outputPath, "output", "", "write output to this file instead of stdout")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "only rescan files whose content fingerprint changed")
	cmd.Flags().BoolVar(&streaming, "streaming", false, "emit matches as each file completes")
	cmd.Flags().IntVar(&maxThreads, "max-threads", 0, "bounded worker pool size (0 = config default)")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (0 = config default)")
	cmd.Flags().BoolVar(&failOnCritical, "fail-on-critical", false, "exit 1 if any critical match is found")
	cmd.Flags().BoolVar(&failOnHigh, "fail-on-high", false, "exit 1 if any high-or-above match is found")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics at http://<addr>/metrics for the life of the scan")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "mirror console log lines to a timestamped run log under this directory")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the terminal progress bar even when stderr is a TTY")

	return cmd
}

func resolveScanConfig(root, profileName, configPath, customDetectorsPath string, incremental, streaming bool, maxThreads int, maxFileSize int64) (*config.ScanConfig, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Root = root

	if profileName != "" {
		names, err := profile.Expand(profileName)
		if err != nil {
			return nil, err
		}
		cfg.EnabledDetectors = append(cfg.EnabledDetectors, names...)
	}

	if customDetectorsPath != "" {
		data, err := os.ReadFile(customDetectorsPath)
		if err != nil {
			return nil, cgerrors.ReadFailed(customDetectorsPath, err)
		}
		docs, err := config.LoadCustomDetectorDocs(data, config.DetectFormat(customDetectorsPath))
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if !d.Enabled {
				continue
			}
			cfg.CustomPatterns[d.Name] = d.Pattern
			cfg.CustomDetectorDescriptors[d.Name] = d
			cfg.EnabledDetectors = append(cfg.EnabledDetectors, fmt.Sprintf("Custom(%s)", d.Name))
		}
	}

	if incremental {
		cfg.Incremental = true
	}
	if streaming {
		cfg.Streaming = true
	}
	if maxThreads > 0 {
		cfg.MaxThreads = maxThreads
	}
	if maxFileSize > 0 {
		cfg.MaxFileSize = maxFileSize
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, func() {}, cgerrors.ReadFailed(path, err)
	}
	return f, func() { f.Close() }, nil
}

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
