package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigil/internal/integrity"
	"vigil/internal/integrity/service"
	integritymemory "vigil/internal/integrity/store/memory"
	"vigil/internal/notify"
	"vigil/internal/trail"
	trailmemory "vigil/internal/trail/store/memory"
	dErrors "vigil/pkg/domain-errors"
)

type notifierRecorder struct {
	payloads []notify.Payload
}

func (n *notifierRecorder) QueueNotification(_ context.Context, payload notify.Payload) {
	n.payloads = append(n.payloads, payload)
}

type failingTrailStore struct {
	trail.Store
}

func (failingTrailStore) Append(context.Context, trail.Event) error {
	return errors.New("trail unavailable")
}

func newService(t *testing.T) (*service.Service, *integritymemory.InMemoryStore, *trailmemory.InMemoryStore, *notifierRecorder) {
	t.Helper()
	reports := integritymemory.NewInMemoryStore()
	trailStore := trailmemory.NewInMemoryStore()
	notifier := &notifierRecorder{}
	svc := service.New(reports, trailStore, service.WithNotifier(notifier))
	return svc, reports, trailStore, notifier
}

func TestCreateReportRoundTrip(t *testing.T) {
	svc, _, _, _ := newService(t)

	receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "IMPERSONATION",
		Description: "Someone used my credentials",
	})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.AnonymousToken)
	require.NotEmpty(t, receipt.Message)

	status, err := svc.FindByToken(context.Background(), receipt.AnonymousToken)
	require.NoError(t, err)
	assert.Equal(t, integrity.StatusOpen, status.Status)
	assert.Equal(t, integrity.CategoryImpersonation, status.Category)
	assert.NotEqual(t, uuid.Nil, status.ID)
}

func TestCreateReportValidation(t *testing.T) {
	svc, _, _, _ := newService(t)

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.CreateReport(context.Background(), service.CreateInput{
			Category:    "GOSSIP",
			Description: "x",
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("missing description", func(t *testing.T) {
		_, err := svc.CreateReport(context.Background(), service.CreateInput{
			Category:    "OTHER",
			Description: "   ",
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestCreateReportAnonymity(t *testing.T) {
	svc, _, trailStore, _ := newService(t)

	_, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "UNAUTHORIZED_ACCESS",
		Description: "Saw a colleague browsing records at night",
	})
	require.NoError(t, err)

	events, err := trailStore.Query(context.Background(), trail.Filter{
		EntityType: trail.EntityIntegrityReport,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	// The submission audit entry carries no actor identity, by construction.
	assert.Nil(t, events[0].ActorID)
	assert.Equal(t, trail.ActionAnonymousSubmission, events[0].Action)
}

func TestAnonymousTokensAreUnique(t *testing.T) {
	svc, _, _, _ := newService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
			Category:    "OTHER",
			Description: "d",
		})
		require.NoError(t, err)
		_, dup := seen[receipt.AnonymousToken]
		require.False(t, dup)
		seen[receipt.AnonymousToken] = struct{}{}
	}
}

func TestCreateReportQueuesNotification(t *testing.T) {
	svc, _, _, notifier := newService(t)

	_, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "DATA_ALTERATION",
		Description: "Record changed without a case reference",
	})
	require.NoError(t, err)

	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, notify.TypeIntegrityReport, notifier.payloads[0].Type)
}

func TestCreateReportSurvivesTrailFailure(t *testing.T) {
	reports := integritymemory.NewInMemoryStore()
	svc := service.New(reports, failingTrailStore{})

	// Audit logging is best-effort: the submitter still gets a token.
	receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "OTHER",
		Description: "d",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.AnonymousToken)
}

func TestCreateSystemReport(t *testing.T) {
	svc, _, trailStore, notifier := newService(t)

	report, err := svc.CreateSystemReport(context.Background(),
		integrity.CategoryExcessiveQueries, "Officer X performed 42 lookups.", "actor=x day=2026-03-10 lookups=42")
	require.NoError(t, err)

	assert.True(t, report.SystemGenerated)
	assert.Equal(t, integrity.StatusOpen, report.Status)

	// No submission audit entry for system reports: the detection run is the
	// provenance.
	events, err := trailStore.Query(context.Background(), trail.Filter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	require.Len(t, notifier.payloads, 1)
	assert.Equal(t, notify.TypeAnomalyDetected, notifier.payloads[0].Type)
}

func TestFindByTokenNotFound(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.FindByToken(context.Background(), "no-such-token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestTokenProjectionIsMinimal(t *testing.T) {
	svc, _, _, _ := newService(t)

	receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "OTHER",
		Description: "sensitive description",
		EvidenceLog: "sensitive evidence",
	})
	require.NoError(t, err)

	status, err := svc.FindByToken(context.Background(), receipt.AnonymousToken)
	require.NoError(t, err)

	full, err := svc.FindByID(context.Background(), status.ID)
	require.NoError(t, err)

	// The token projection exposes only lifecycle metadata; everything
	// investigator-facing stays on the full projection.
	assert.Equal(t, full.ID, status.ID)
	assert.Equal(t, full.Status, status.Status)
	assert.Equal(t, full.Category, status.Category)
	assert.NotEmpty(t, full.Description)
	assert.NotEmpty(t, full.EvidenceLog)
}

func TestFindAllFilters(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.CreateReport(context.Background(), service.CreateInput{Category: "OTHER", Description: "a"})
	require.NoError(t, err)
	_, err = svc.CreateSystemReport(context.Background(), integrity.CategoryExcessiveQueries, "b", "")
	require.NoError(t, err)

	all, err := svc.FindAll(context.Background(), service.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.FindAll(context.Background(), service.ListFilter{Category: "EXCESSIVE_QUERIES"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	_, err = svc.FindAll(context.Background(), service.ListFilter{Status: "BOGUS"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestUpdate(t *testing.T) {
	svc, _, trailStore, _ := newService(t)

	receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "IMPERSONATION",
		Description: "X",
	})
	require.NoError(t, err)
	status, err := svc.FindByToken(context.Background(), receipt.AnonymousToken)
	require.NoError(t, err)

	underReview := string(integrity.StatusUnderReview)
	investigator := "inv-1"
	updated, err := svc.Update(context.Background(), status.ID, service.UpdateInput{
		Status:       &underReview,
		AssignedToID: &investigator,
	}, "inv-1")
	require.NoError(t, err)

	assert.Equal(t, integrity.StatusUnderReview, updated.Status)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, "inv-1", *updated.AssignedToID)

	// The update audit entry attributes the investigator, not the submitter.
	events, err := trailStore.Query(context.Background(), trail.Filter{
		Actions: []string{trail.ActionReportUpdated},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ActorID)
	assert.Equal(t, "inv-1", *events[0].ActorID)
}

func TestUpdateNotFoundWritesNothing(t *testing.T) {
	svc, _, trailStore, _ := newService(t)

	underReview := string(integrity.StatusUnderReview)
	_, err := svc.Update(context.Background(), uuid.New(), service.UpdateInput{
		Status: &underReview,
	}, "inv-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	// No write of any kind happened, including no audit entry.
	events, qerr := trailStore.Query(context.Background(), trail.Filter{})
	require.NoError(t, qerr)
	assert.Empty(t, events)
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _, _ := newService(t)
	receipt, err := svc.CreateReport(context.Background(), service.CreateInput{
		Category:    "OTHER",
		Description: "d",
	})
	require.NoError(t, err)
	status, err := svc.FindByToken(context.Background(), receipt.AnonymousToken)
	require.NoError(t, err)

	t.Run("unknown status", func(t *testing.T) {
		bogus := "REOPENED"
		_, err := svc.Update(context.Background(), status.ID, service.UpdateInput{Status: &bogus}, "inv-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("empty update", func(t *testing.T) {
		_, err := svc.Update(context.Background(), status.ID, service.UpdateInput{}, "inv-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("any status transition allowed", func(t *testing.T) {
		closed := string(integrity.StatusClosedUnfounded)
		_, err := svc.Update(context.Background(), status.ID, service.UpdateInput{Status: &closed}, "inv-1")
		require.NoError(t, err)

		// Lifecycle ordering is advisory: reopening from closed is accepted.
		open := string(integrity.StatusOpen)
		_, err = svc.Update(context.Background(), status.ID, service.UpdateInput{Status: &open}, "inv-1")
		require.NoError(t, err)
	})
}
