// Package service orchestrates integrity report creation, lookup, and update.
// It owns the anonymity invariant: nothing written on the human-submission
// path (report row, audit entry, notification) carries the submitting
// caller's identity.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vigil/internal/integrity"
	"vigil/internal/integrity/metrics"
	"vigil/internal/integrity/store"
	"vigil/internal/notify"
	"vigil/internal/trail"
	dErrors "vigil/pkg/domain-errors"
	"vigil/pkg/platform/sentinel"
)

// Notifier is the dispatch surface. notify.Dispatcher satisfies it; tests
// substitute a recorder.
type Notifier interface {
	QueueNotification(ctx context.Context, payload notify.Payload)
}

// Service is the only writer-side actor for integrity reports.
type Service struct {
	reports  store.Store
	trail    trail.Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New constructs the integrity service. trailStore receives this subsystem's
// own audit entries; report rows go to reports.
func New(reports store.Store, trailStore trail.Store, opts ...Option) *Service {
	s := &Service{
		reports: reports,
		trail:   trailStore,
		logger:  slog.Default(),
		tracer:  otel.Tracer("vigil/integrity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the human-submission request.
type CreateInput struct {
	Category    string
	Description string
	EvidenceLog string
}

// SubmissionReceipt is everything a submitter gets back: the token and a
// human-readable acknowledgement. Deliberately nothing else.
type SubmissionReceipt struct {
	AnonymousToken string
	Message        string
}

// CreateReport persists an anonymously submitted report. The caller was
// authenticated to reach this operation, but no caller identity enters this
// function, so none can be stored.
func (s *Service) CreateReport(ctx context.Context, input CreateInput) (*SubmissionReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.CreateReport")
	defer span.End()

	category, err := integrity.ParseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "description is required")
	}

	token, err := newAnonymousToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create report")
	}

	now := time.Now()
	report := &integrity.Report{
		ID:             uuid.New(),
		AnonymousToken: token,
		Category:       category,
		Description:    input.Description,
		EvidenceLog:    input.EvidenceLog,
		Status:         integrity.StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist report")
	}

	// Best-effort from here on: the submitter already has a durable report.
	s.appendTrail(ctx, trail.Event{
		Action:     trail.ActionAnonymousSubmission,
		EntityType: trail.EntityIntegrityReport,
		EntityID:   ptr(report.ID.String()),
		Details:    mustJSON(trail.SubmissionDetails{Category: string(category)}),
		Success:    true,
	})
	if s.notifier != nil {
		s.notifier.QueueNotification(ctx, notify.Payload{
			Type:     notify.TypeIntegrityReport,
			Subject:  "New integrity report submitted",
			Body:     "An integrity report of category " + string(category) + " was submitted and is awaiting review.",
			ReportID: report.ID.String(),
		})
	}
	if s.metrics != nil {
		s.metrics.AnonymousReports.Inc()
	}

	return &SubmissionReceipt{
		AnonymousToken: token,
		Message:        "Report received. Keep your token to check its status.",
	}, nil
}

// CreateSystemReport persists a report generated by the detection engine.
// The detection run itself is the provenance, so no submission audit entry is
// written here.
func (s *Service) CreateSystemReport(ctx context.Context, category integrity.Category, description, evidenceLog string) (*integrity.Report, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.CreateSystemReport")
	defer span.End()

	if _, err := integrity.ParseCategory(string(category)); err != nil {
		return nil, err
	}

	token, err := newAnonymousToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create report")
	}

	now := time.Now()
	report := &integrity.Report{
		ID:              uuid.New(),
		AnonymousToken:  token,
		Category:        category,
		Description:     description,
		EvidenceLog:     evidenceLog,
		SystemGenerated: true,
		Status:          integrity.StatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist report")
	}

	if s.notifier != nil {
		s.notifier.QueueNotification(ctx, notify.Payload{
			Type:     notify.TypeAnomalyDetected,
			Subject:  "Anomaly detected: " + string(category),
			Body:     description,
			ReportID: report.ID.String(),
		})
	}
	if s.metrics != nil {
		s.metrics.SystemReports.Inc()
	}
	return report, nil
}

// FindByToken returns the minimal status projection for an anonymous token
// holder. This is the only read path available without privileges.
func (s *Service) FindByToken(ctx context.Context, token string) (*integrity.TokenStatus, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token is required")
	}
	report, err := s.reports.FindByToken(ctx, token)
	if err != nil {
		return nil, wrapReportErr(err)
	}
	status := report.TokenStatus()
	return &status, nil
}

// ListFilter narrows FindAll. Empty strings mean "any".
type ListFilter struct {
	Status   string
	Category string
}

// FindAll returns full report projections for oversight staff.
func (s *Service) FindAll(ctx context.Context, filter ListFilter) ([]*integrity.Report, error) {
	var sf store.Filter
	if filter.Status != "" {
		status, err := integrity.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		sf.Status = &status
	}
	if filter.Category != "" {
		category, err := integrity.ParseCategory(filter.Category)
		if err != nil {
			return nil, err
		}
		sf.Category = &category
	}
	reports, err := s.reports.List(ctx, sf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reports")
	}
	return reports, nil
}

// FindByID returns the full projection for oversight staff.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*integrity.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, wrapReportErr(err)
	}
	return report, nil
}

// UpdateInput carries the mutable report fields. Nil means "leave unchanged".
// Any subset may change together; the lifecycle ordering is advisory and not
// enforced beyond enum validation.
type UpdateInput struct {
	Status       *string
	AssignedToID *string
	Resolution   *string
}

// Update applies investigator changes to a report and records an audit entry
// attributing the acting officer. This path is not anonymous: only the
// original submission is.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actingOfficerID string) (*integrity.Report, error) {
	ctx, span := s.tracer.Start(ctx, "integrity.Update")
	defer span.End()

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, wrapReportErr(err)
	}

	var changed []string
	if input.Status != nil {
		status, err := integrity.ParseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		report.Status = status
		changed = append(changed, "status")
	}
	if input.AssignedToID != nil {
		report.AssignedToID = input.AssignedToID
		changed = append(changed, "assignedToId")
	}
	if input.Resolution != nil {
		report.Resolution = input.Resolution
		changed = append(changed, "resolution")
	}
	if len(changed) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no fields to update")
	}

	report.UpdatedAt = time.Now()
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, wrapReportErr(err)
	}

	s.appendTrail(ctx, trail.Event{
		ActorID:    &actingOfficerID,
		Action:     trail.ActionReportUpdated,
		EntityType: trail.EntityIntegrityReport,
		EntityID:   ptr(report.ID.String()),
		Details: mustJSON(trail.UpdateDetails{
			ChangedFields: changed,
			NewStatus:     string(report.Status),
		}),
		Success: true,
	})
	if s.metrics != nil {
		s.metrics.ReportUpdates.Inc()
	}
	return report, nil
}

// appendTrail writes one of this subsystem's own audit entries. Failures are
// swallowed and logged: audit logging is best-effort and must never fail the
// primary operation.
func (s *Service) appendTrail(ctx context.Context, event trail.Event) {
	if s.trail == nil {
		return
	}
	if err := s.trail.Append(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit trail write failed",
			"action", event.Action,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.AuditWriteFails.Inc()
		}
	}
}

func wrapReportErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "report not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "report store failure")
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func ptr(s string) *string { return &s }
