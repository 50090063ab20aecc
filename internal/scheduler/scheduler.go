package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/events"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/watchlist"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is triggered while another is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// DigestMailer delivers the rendered digest to subscribers.
type DigestMailer interface {
	SendDigest(ctx context.Context, body string) (int, error)
}

// Messenger delivers short operator messages.
type Messenger interface {
	SendWithRetry(ctx context.Context, text string) error
}

// Scheduler owns the run lifecycle: watch-list, snapshot, persistence,
// digest, event and operator summary. Optional collaborators may be nil.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Watchlist    watchlist.Source
	Recorder     recorder.Recorder
	ArtifactPath string
	Mailer       DigestMailer
	Publisher    events.Publisher
	Messenger    Messenger
	Digest       notifier.DigestOptions
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	Ctx          context.Context

	NewRunID func() string
	Now      func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	last    *model.RunReport
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, src watchlist.Source, rec recorder.Recorder, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Watchlist: src,
		Recorder:  rec,
		Logger:    logger,
		Ctx:       ctx,
		NewRunID:  func() string { return uuid.NewString() },
		Now:       time.Now,
	}
}

// Register schedules the pipeline run.
func (s *Scheduler) Register(runCron string) error {
	if _, err := s.Cron.AddFunc(runCron, func() { s.runDetached("cron") }); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// runDetached runs the pipeline for a caller that does not wait on it. Aborts are
// already reported by RunNow; only the overlap case is logged here.
func (s *Scheduler) runDetached(trigger string) {
	_, err := s.RunNow(s.Ctx)
	if errors.Is(err, ErrRunInProgress) {
		s.Logger.Warn("run skipped, another run is in progress", zap.String("trigger", trigger))
	}
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

// LastReport returns the report of the last finished run, nil before the first.
func (s *Scheduler) LastReport() *model.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunNow executes one complete run. The error is non-nil only for aborted runs;
// collaborator failures after the snapshot is built are listed in the report.
func (s *Scheduler) RunNow(ctx context.Context) (*model.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	report := &model.RunReport{RunID: s.NewRunID(), StartedAt: s.Now()}
	log := s.Logger.With(zap.String("run_id", report.RunID))
	log.Info("run started")

	snap, err := s.buildSnapshot(ctx, report)
	if err != nil {
		s.finish(report, "aborted")
		log.Error("run aborted", zap.Error(err))
		s.notify(ctx, fmt.Sprintf("❌ StockSentinel run %s aborted: %v", report.RunID, err))
		return report, err
	}

	report.Persisted = s.persist(ctx, snap, report)
	s.mail(ctx, snap, report)
	if report.Persisted {
		s.publish(ctx, snap, report)
	}

	outcome := "ok"
	if len(report.Errors) > 0 {
		outcome = "degraded"
	}
	s.finish(report, outcome)
	log.Info("run finished",
		zap.String("outcome", outcome),
		zap.Int("records", report.Records),
		zap.Int("highlighted", report.Highlighted),
		zap.Int("skipped", report.Skipped),
		zap.Duration("took", report.Duration()))
	s.notify(ctx, notifier.FormatRunSummary(report))
	return report, nil
}

func (s *Scheduler) buildSnapshot(ctx context.Context, report *model.RunReport) (*model.Snapshot, error) {
	items, err := s.Watchlist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watch-list: %w", err)
	}
	report.Symbols = len(items)

	snap, skips, err := s.Collector.Collect(ctx, items)
	if err != nil {
		return nil, err
	}
	snap.RunID = report.RunID

	hl := snap.Highlighted()
	report.Records = len(snap.Records)
	report.Highlighted = len(hl)
	for _, r := range hl {
		report.HighlightedSymbols = append(report.HighlightedSymbols, r.Symbol)
	}
	report.Skipped = len(skips)
	if len(skips) > 0 {
		report.SkipCounts = make(map[model.SkipReason]int)
		for _, sk := range skips {
			report.SkipCounts[sk.Reason]++
		}
	}
	return snap, nil
}

// persist writes the artifact and the snapshot table. Both are attempted.
func (s *Scheduler) persist(ctx context.Context, snap *model.Snapshot, report *model.RunReport) bool {
	ok := true
	if s.ArtifactPath != "" {
		if err := recorder.WriteArtifact(s.ArtifactPath, snap); err != nil {
			s.fail(report, "write artifact", err)
			ok = false
		}
	}
	if s.Recorder != nil {
		if err := s.Recorder.SaveSnapshot(ctx, snap); err != nil {
			s.fail(report, "save snapshot", err)
			ok = false
		}
	}
	return ok
}

func (s *Scheduler) mail(ctx context.Context, snap *model.Snapshot, report *model.RunReport) {
	if s.Mailer == nil {
		return
	}
	if report.Highlighted == 0 {
		s.Logger.Info("no highlighted symbols, digest not sent", zap.String("run_id", report.RunID))
		return
	}
	opts := s.Digest
	opts.GeneratedAt = report.StartedAt
	body, err := notifier.RenderDigest(snap, opts)
	if err != nil {
		s.fail(report, "render digest", err)
		return
	}
	n, err := s.Mailer.SendDigest(ctx, body)
	report.Emailed = n
	if s.Metrics != nil {
		s.Metrics.EmailsSent.Add(float64(n))
	}
	if err != nil {
		s.fail(report, "send digest", err)
	}
}

func (s *Scheduler) publish(ctx context.Context, snap *model.Snapshot, report *model.RunReport) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, events.NewSnapshotEvent(snap, s.Now())); err != nil {
		s.fail(report, "publish event", err)
		return
	}
	report.Published = true
	if s.Metrics != nil {
		s.Metrics.EventsPublished.Inc()
	}
}

func (s *Scheduler) finish(report *model.RunReport, outcome string) {
	report.FinishedAt = s.Now()
	if s.Metrics != nil {
		s.Metrics.RunsTotal.WithLabelValues(outcome).Inc()
		s.Metrics.RunDuration.Observe(report.Duration().Seconds())
		if outcome != "aborted" {
			s.Metrics.Highlighted.Set(float64(report.Highlighted))
			s.Metrics.SnapshotRecords.Set(float64(report.Records))
		}
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
}

func (s *Scheduler) fail(report *model.RunReport, step string, err error) {
	s.Logger.Error(step, zap.String("run_id", report.RunID), zap.Error(err))
	report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", step, err))
}

func (s *Scheduler) notify(ctx context.Context, text string) {
	if s.Messenger == nil {
		return
	}
	if err := s.Messenger.SendWithRetry(ctx, text); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/run":
		if s.Running() {
			return "⏳ A run is already in progress."
		}
		go s.runDetached("telegram")
		return "🚀 Run started."
	case "/status":
		return notifier.FormatStatus(s.LastReport(), s.Running())
	default:
		return "Available commands:\n• /run\n• /status"
	}
}
