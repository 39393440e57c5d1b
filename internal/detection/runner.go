package detection

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vigil/internal/detection/metrics"
	"vigil/internal/directory"
	"vigil/internal/integrity"
	"vigil/internal/trail"
)

// Rule scans a bounded window of the audit trail relative to now and emits
// zero or more findings.
type Rule interface {
	Name() string
	Run(ctx context.Context, now time.Time) ([]Finding, error)
}

// ReportCreator turns findings into system-generated reports. Satisfied by
// the integrity service.
type ReportCreator interface {
	CreateSystemReport(ctx context.Context, category integrity.Category, description, evidenceLog string) (*integrity.Report, error)
}

// Runner executes all rules for one scan. Rules run concurrently; a failure
// in one rule is logged and isolated so the others still complete. The runner
// does not deduplicate findings across runs: each run reports what it sees.
type Runner struct {
	rules   []Rule
	creator ReportCreator
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Runner.
type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner builds a runner over an explicit rule list.
func NewRunner(creator ReportCreator, rules []Rule, opts ...Option) *Runner {
	r := &Runner{
		rules:   rules,
		creator: creator,
		logger:  slog.Default(),
		tracer:  otel.Tracer("vigil/detection"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRules wires the three production rules.
func DefaultRules(trailStore trail.Store, dir directory.Directory) []Rule {
	return []Rule{
		NewExcessiveLookupRule(trailStore, dir),
		NewOffHoursRule(trailStore, dir),
		NewFanOutRule(trailStore),
	}
}

// Run executes every rule against the windows anchored at now and files a
// system report per finding. It returns only after all rules finish; there is
// no mid-run cancellation beyond ctx.
func (r *Runner) Run(ctx context.Context, now time.Time) {
	ctx, span := r.tracer.Start(ctx, "detection.Run")
	defer span.End()

	if r.metrics != nil {
		r.metrics.ScanRuns.Inc()
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for _, rule := range r.rules {
		g.Go(func() error {
			r.runRule(gctx, rule, now)
			// Rule failures are isolated inside runRule; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	r.logger.InfoContext(ctx, "detection run complete",
		"rules", len(r.rules),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Runner) runRule(ctx context.Context, rule Rule, now time.Time) {
	findings, err := rule.Run(ctx, now)
	if err != nil {
		r.logger.ErrorContext(ctx, "detection rule failed",
			"rule", rule.Name(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.RuleFailures.WithLabelValues(rule.Name()).Inc()
		}
		return
	}

	for _, finding := range findings {
		if _, err := r.creator.CreateSystemReport(ctx, finding.Category, finding.Description, finding.Evidence.Ref()); err != nil {
			r.logger.ErrorContext(ctx, "system report creation failed",
				"rule", rule.Name(),
				"category", finding.Category,
				"error", err,
			)
			continue
		}
		if r.metrics != nil {
			r.metrics.Findings.WithLabelValues(rule.Name()).Inc()
		}
	}

	r.logger.InfoContext(ctx, "detection rule complete",
		"rule", rule.Name(),
		"findings", len(findings),
	)
}
